package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"artifact-notifier/internal/actions"
	"artifact-notifier/internal/app"
	"artifact-notifier/internal/config"
	"artifact-notifier/internal/logging"
	"artifact-notifier/internal/runtime"

	flags "github.com/jessevdk/go-flags"
)

var BuildVersion = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	rootCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	opts, err := config.ParseOptions(os.Args[1:])
	if err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	host := actions.NewGitHub(os.Stdout)
	host.Mask(opts.Token)
	logger := logging.New(opts.Debug)
	defer mirrorOnRunner(host, logger, os.Getenv)()
	logger.Debug("artifact notifier starting", logging.Field("version", BuildVersion))

	if err := execute(rootCtx, opts, host, logger); err != nil {
		logger.Error("run failed", logging.Field("error", err))
		host.SetFailed(app.FailureMessage(err))
		return 1
	}
	return 0
}

// mirrorOnRunner sends log events to the runner as workflow commands. Off a
// runner, the terminal keeps all output.
func mirrorOnRunner(host *actions.GitHub, logger *logging.Logger, getenv func(string) string) func() {
	if getenv("GITHUB_ACTIONS") != "true" {
		return func() {}
	}
	return host.Mirror(logger)
}

func execute(ctx context.Context, opts config.Options, host actions.Host, logger *logging.Logger) error {
	lock, err := lockWorkdir(opts.Workdir)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()

	service, err := runtime.NewService(opts, host, logger)
	if err != nil {
		return err
	}
	return service.Run(ctx)
}
