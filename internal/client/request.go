package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"artifact-notifier/internal/logging"
)

const maxLoggedBody = 2048

// messagesURL appends the access token as a query credential.
func (c *MessengerClient) messagesURL() (string, error) {
	u, err := url.Parse(c.endpoints.MessagesURL)
	if err != nil {
		return "", fmt.Errorf("parse messages URL: %w", err)
	}
	q := u.Query()
	q.Set("access_token", c.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *MessengerClient) do(req *http.Request, what string, fields ...slog.Attr) (Response, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The request URL carries the access token; keep it out of the message.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = c.endpoints.MessagesURL
		}
		return nil, err
	}
	defer resp.Body.Close()
	c.logger.Debugf("POST %s -> %s", c.endpoints.MessagesURL, resp.Status)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", what, err)
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		c.logger.Warn("invalid "+what+" response JSON", append(fields,
			logging.Field("status", resp.Status),
			logging.Field("content_type", resp.Header.Get("Content-Type")),
			logging.Field("response", logging.FormatHTTPPayload(logExcerpt(data))),
		)...)
		return nil, fmt.Errorf("decode %s response: %w", what, err)
	}
	// Any JSON value is accepted; only objects are kept for inspection.
	m, _ := decoded.(map[string]any)
	out := Response(m)

	if apiErr, ok := out.ErrorMessage(); ok || resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn(what+" reported an error", append(fields,
			logging.Field("status", resp.Status),
			logging.Field("api_error", apiErr),
			logging.Field("response", logging.FormatHTTPPayload(logExcerpt(data))),
		)...)
	}
	return out, nil
}

// logExcerpt caps how much of a body ends up in a warning; decoding always
// sees the whole body.
func logExcerpt(data []byte) []byte {
	if len(data) > maxLoggedBody {
		return data[:maxLoggedBody]
	}
	return data
}
