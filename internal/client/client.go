package client

import (
	"net/http"

	"artifact-notifier/internal/config"
	"artifact-notifier/internal/logging"
)

// MessengerClient talks to the messaging API thread endpoint. It holds no
// per-request state, so one instance is shared by every concurrent upload.
type MessengerClient struct {
	http      *http.Client
	token     string
	endpoints config.APIEndpoints
	logger    *logging.Logger
}

func New(httpClient *http.Client, token string, endpoints config.APIEndpoints, logger *logging.Logger) *MessengerClient {
	if logger == nil {
		panic("client.New: logger must not be nil")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &MessengerClient{http: httpClient, token: token, endpoints: endpoints, logger: logger}
}
