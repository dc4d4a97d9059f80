package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"artifact-notifier/internal/logging"
)

// mime's builtin table has no video types.
var fallbackContentTypes = map[string]string{
	".mp4": "video/mp4",
	".png": "image/png",
}

// PostFile uploads one artifact as a message attachment. The file is
// streamed into the multipart body rather than buffered.
func (c *MessengerClient) PostFile(ctx context.Context, upload UploadRequest) (Response, error) {
	recipient, err := json.Marshal(Recipient{ThreadKey: upload.Channel})
	if err != nil {
		return nil, err
	}
	message, err := json.Marshal(AttachmentMessage{
		Attachment: Attachment{Type: upload.Type, Payload: AttachmentPayload{IsReusable: false}},
	})
	if err != nil {
		return nil, err
	}

	f, err := os.Open(upload.File)
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}

	target, err := c.messagesURL()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		defer f.Close()
		pw.CloseWithError(writeAttachmentForm(form, recipient, message, f, upload.File))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	c.logger.Debug("uploading attachment",
		logging.Field("file", upload.File),
		logging.Field("type", string(upload.Type)),
	)
	return c.do(req, "attachment upload",
		logging.Field("file", upload.File),
		logging.Field("type", string(upload.Type)),
	)
}

func writeAttachmentForm(form *multipart.Writer, recipient, message []byte, file io.Reader, path string) error {
	if err := form.WriteField("recipient", string(recipient)); err != nil {
		return err
	}
	if err := form.WriteField("message", string(message)); err != nil {
		return err
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="filedata"; filename="%s"`, escapeQuotes(filepath.Base(path))))
	header.Set("Content-Type", contentTypeFor(path))
	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("stream attachment: %w", err)
	}
	return form.Close()
}

func contentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	if ct, ok := fallbackContentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
