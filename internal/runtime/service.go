package runtime

import (
	"context"
	"net/http"

	"artifact-notifier/internal/actions"
	"artifact-notifier/internal/app"
	"artifact-notifier/internal/client"
	"artifact-notifier/internal/config"
	"artifact-notifier/internal/logging"
)

type Service interface {
	Run(ctx context.Context) error
}

// NewService wires the messaging client and notifier for one run. The HTTP
// client keeps the library defaults; uploads of large videos have no
// overall deadline beyond ctx.
func NewService(opts config.Options, host actions.Host, logger *logging.Logger) (Service, error) {
	if logger == nil {
		panic("runtime.NewService: logger must not be nil")
	}
	opts = config.ApplyDefaults(opts)
	endpoints, err := config.BuildEndpoints(opts.APIURL)
	if err != nil {
		return nil, err
	}
	logger.Debug("constructed API endpoints",
		logging.Field("base_url", endpoints.BaseURL),
		logging.Field("messages_url", endpoints.MessagesURL),
	)

	messenger := client.New(&http.Client{}, opts.Token, endpoints, logger)
	return app.New(opts, messenger, host, logger, app.Callbacks{
		OnStatusChange: func(status string) {
			logger.Info(status)
		},
	}), nil
}
