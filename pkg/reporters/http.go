package reporters

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/petfriends-qa/pkg/httpclient"
)

const (
	webhookUserAgent = "petfriends-qa-reporter/1.0"
	// webhookHeaderPrefix namespaces the event attributes sent as headers.
	webhookHeaderPrefix = "X-Petfriends-"
	maxRejectionBody    = 512
)

// WebhookError is returned when the receiving endpoint answers a run report with a non-2xx status.
type WebhookError struct {
	ReporterID string
	RunID      string
	Status     int
	Body       string
}

func (e *WebhookError) Error() string {
	msg := fmt.Sprintf("webhook %s rejected run %s with status %d", e.ReporterID, e.RunID, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// webhookReporter posts each run report as JSON to a fixed endpoint.
type webhookReporter struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     Logger
}

func newHTTPReporter(_ context.Context, cfg ReporterConfig, log Logger) (Reporter, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("reporter %q missing http configuration", cfg.ID)
	}
	method := strings.ToUpper(strings.TrimSpace(cfg.HTTP.Method))
	if method == "" {
		method = http.MethodPost
	}

	return &webhookReporter{
		id:      cfg.ID,
		method:  method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client: httpclient.New(httpclient.Options{
			Timeout:   time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
			UserAgent: webhookUserAgent,
		}),
		log: ensureLogger(log),
	}, nil
}

func (w *webhookReporter) ID() string   { return w.id }
func (w *webhookReporter) Type() string { return TypeHTTP }

// Publish sends evt once. The event id doubles as an idempotency key so receivers can drop
// duplicates after a re-run of the same report.
func (w *webhookReporter) Publish(ctx context.Context, evt Event) error {
	req := w.client.R().
		SetContext(ctx).
		SetHeaders(w.headers).
		SetHeader("Content-Type", "application/json").
		SetHeader("Idempotency-Key", evt.EventID).
		SetBody(evt)
	for k, v := range evt.attributes() {
		req.SetHeader(webhookHeaderPrefix+attributeHeader(k), v)
	}

	resp, err := req.Execute(w.method, w.url)
	if err != nil {
		return fmt.Errorf("webhook %s: deliver run %s: %w", w.id, evt.RunID, err)
	}
	if resp.IsError() {
		return &WebhookError{
			ReporterID: w.id,
			RunID:      evt.RunID,
			Status:     resp.StatusCode(),
			Body:       rejectionBody(resp.Body()),
		}
	}

	w.log.DebugObj("run report delivered", "reporter_webhook_delivery", map[string]any{
		"reporter_id": w.id,
		"run_id":      evt.RunID,
		"run_status":  evt.Status(),
		"http_status": resp.StatusCode(),
		"elapsed_ms":  resp.Time().Milliseconds(),
	})
	return nil
}

// attributeHeader turns "run_id" into "Run-Id".
func attributeHeader(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}

func rejectionBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxRejectionBody {
		s = s[:maxRejectionBody]
	}
	return s
}
