package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"

	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/dmitrijs2005/learnassist/internal/filex"
	"github.com/dmitrijs2005/learnassist/internal/netx"
)

// UploadFile streams one file as multipart/form-data (fields "courseId" and
// "file") to the backend. progress sees file bytes as the transport reads them.
func (c *HTTPClient) UploadFile(ctx context.Context, collectionID string, file filex.Info, progress netx.ProgressFunc) error {
	fields := map[string]string{"courseId": collectionID}
	_, err := c.postMultipart(ctx, backend, "/api/upload", fields, file, progress)
	return err
}

// Analyze posts a pdf, audio or video file to the assistant proxy and returns
// its text answer.
func (c *HTTPClient) Analyze(ctx context.Context, file filex.Info, prompt string) (string, error) {
	if !file.Kind.Analyzable() {
		return "", fmt.Errorf("%w: %s", common.ErrUnsupportedKind, file.Kind)
	}
	fields := map[string]string{}
	if p := strings.TrimSpace(prompt); p != "" {
		fields["prompt"] = p
	}
	raw, err := c.postMultipart(ctx, assistant, "/api/upload/"+string(file.Kind), fields, file, nil)
	if err != nil {
		return "", err
	}
	var resp struct {
		Content string `json:"content"`
	}
	if err := decode(raw, &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *HTTPClient) postMultipart(ctx context.Context, t target, path string, fields map[string]string, file filex.Info, progress netx.ProgressFunc) ([]byte, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file.Path, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, fields, file, netx.NewProgressReader(f, file.Size, progress)))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(t, path), pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := c.setHeaders(req, t); err != nil {
		return nil, err
	}

	raw, err := c.send(req)
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func writeMultipart(mw *multipart.Writer, fields map[string]string, file filex.Info, body io.Reader) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
	h.Set("Content-Type", filex.MIMEType(file.Kind, file.Name))
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
