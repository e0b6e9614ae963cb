package petfriends

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSummaryLen = 512

// Summary renders the body for logs and reports: compact JSON for objects, the visible
// text of HTML error pages, and trimmed raw text otherwise. It never fails.
func (b Body) Summary() string {
	if b.IsEmpty() {
		return "<empty>"
	}
	if b.kind == BodyJSON {
		var buf bytes.Buffer
		if err := json.Compact(&buf, bytes.TrimSpace(b.raw)); err == nil {
			return truncate(buf.String())
		}
	}
	if looksLikeHTML(b.raw) {
		if text := htmlText(b.raw); text != "" {
			return truncate(text)
		}
	}
	return truncate(strings.TrimSpace(string(b.raw)))
}

// IsHTML reports whether a text body looks like an HTML document.
func (b Body) IsHTML() bool {
	return b.kind == BodyText && looksLikeHTML(b.raw)
}

func looksLikeHTML(raw []byte) bool {
	head := raw
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	lower := bytes.ToLower(bytes.TrimSpace(head))
	return bytes.HasPrefix(lower, []byte("<!doctype html")) ||
		bytes.HasPrefix(lower, []byte("<html")) ||
		bytes.Contains(lower, []byte("<title>")) ||
		bytes.Contains(lower, []byte("<h1>"))
}

// htmlText extracts the title and the body's visible text, whitespace collapsed.
func htmlText(raw []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()

	title := collapse(doc.Find("title").First().Text())
	body := collapse(doc.Find("body").Text())
	switch {
	case title == "":
		return body
	case body == "" || strings.HasPrefix(body, title):
		return title
	default:
		return title + ": " + body
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if len(s) <= maxSummaryLen {
		return s
	}
	cut := maxSummaryLen
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
