package petfriends

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const sniffLen = 512

// photo is an open photo file scoped to a single call.
type photo struct {
	afero.File
	FileName    string
	ContentType string
}

// openPhoto opens path on the client's filesystem and resolves its content type from the
// extension, sniffing the leading bytes when the extension is unknown. The caller must Close it.
func (c *Client) openPhoto(path string) (*photo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("photo path is empty")
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}

	ct, err := detectContentType(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &photo{
		File:        f,
		FileName:    filepath.Base(path),
		ContentType: ct,
	}, nil
}

func detectContentType(f afero.File, path string) (string, error) {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct, nil
	}

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read photo header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind photo: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}
