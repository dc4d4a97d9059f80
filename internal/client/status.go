package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"artifact-notifier/internal/logging"
)

// SendStatus posts the plain-text status message that precedes the uploads.
func (c *MessengerClient) SendStatus(ctx context.Context, channel string, text string) (Response, error) {
	payload := StatusPayload{
		MessagingType: messagingTypeUpdate,
		Recipient:     Recipient{ThreadKey: channel},
		Message:       TextMessage{Text: text},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("sending status message",
		logging.Field("channel", channel),
		logging.Field("payload", logging.FormatHTTPPayload(body)),
	)

	target, err := c.messagesURL()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "status message", logging.Field("channel", channel))
}
