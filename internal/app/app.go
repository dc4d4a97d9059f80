package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"artifact-notifier/internal/actions"
	"artifact-notifier/internal/artifacts"
	"artifact-notifier/internal/client"
	"artifact-notifier/internal/config"
	"artifact-notifier/internal/logging"
	"artifact-notifier/internal/runstatus"
)

// Messenger is the part of the messaging API the notifier needs.
type Messenger interface {
	SendStatus(ctx context.Context, channel string, text string) (client.Response, error)
	PostFile(ctx context.Context, upload client.UploadRequest) (client.Response, error)
}

type Notifier struct {
	opts   config.Options
	client Messenger
	host   actions.Host
	logger *logging.Logger
	hooks  Callbacks
	status runtimeStatusState
}

type Callbacks struct {
	OnStatusChange func(string)
}

func New(opts config.Options, messenger Messenger, host actions.Host, logger *logging.Logger, hooks Callbacks) *Notifier {
	if messenger == nil {
		panic("app.New: messenger must not be nil")
	}
	if host == nil {
		panic("app.New: host must not be nil")
	}
	if logger == nil {
		panic("app.New: logger must not be nil")
	}
	return &Notifier{opts: config.ApplyDefaults(opts), client: messenger, host: host, logger: logger, hooks: hooks}
}

// Run scans the workdir, posts the status message, then uploads screenshots
// and videos in two waves. Finding nothing is a successful run.
func (n *Notifier) Run(ctx context.Context) error {
	n.logger.Debug("resolved inputs",
		logging.Secret("token", n.opts.Token),
		logging.Field("channel", n.opts.Channel),
		logging.Field("workdir", n.opts.Workdir),
		logging.Field("message_text", n.opts.MessageText),
	)

	n.setRuntimeStatus(runstatus.Scanning)
	n.logger.Debug("checking for videos and screenshots", logging.Field("workdir", n.opts.Workdir))
	set, err := artifacts.Discover(n.opts.Workdir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScanFailed, err)
	}

	if set.Empty() {
		n.logger.Info("no videos or screenshots found", logging.Field("workdir", n.opts.Workdir))
		n.host.SetOutput(runstatus.ResultOutput, runstatus.NothingFoundMessage)
		n.setRuntimeStatus(runstatus.NothingFound)
		return nil
	}
	n.logger.Info("artifacts found",
		logging.Field("videos", len(set.Videos)),
		logging.Field("screenshots", len(set.Screenshots)),
	)

	n.setRuntimeStatus(runstatus.Notifying)
	if _, err := n.client.SendStatus(ctx, n.opts.Channel, n.opts.MessageText); err != nil {
		return fmt.Errorf("%w: %w", ErrStatusMessage, err)
	}

	if len(set.Screenshots) > 0 {
		n.setRuntimeStatus(runstatus.UploadingScreenshots)
		if err := n.uploadWave(ctx, "screenshots", set.Screenshots, client.AttachmentImage); err != nil {
			return err
		}
	}
	if len(set.Videos) > 0 {
		n.setRuntimeStatus(runstatus.UploadingVideos)
		if err := n.uploadWave(ctx, "videos", set.Videos, client.AttachmentFile); err != nil {
			return err
		}
	}

	n.setRuntimeStatus(runstatus.Done)
	n.logger.Info("artifacts uploaded",
		logging.Field("videos", len(set.Videos)),
		logging.Field("screenshots", len(set.Screenshots)),
	)
	return nil
}

// uploadWave starts one upload per path and waits for all of them. The
// first failure cancels the siblings' context; Wait still returns only after
// every upload has finished.
func (n *Notifier) uploadWave(ctx context.Context, name string, paths []string, kind client.AttachmentType) error {
	n.logger.Debug("uploading "+name, logging.Field("count", len(paths)))
	g, waveCtx := errgroup.WithContext(ctx)
	for _, rel := range paths {
		g.Go(func() error {
			n.logger.Debug("uploading "+rel, logging.Field("type", string(kind)))
			_, err := n.client.PostFile(waveCtx, client.UploadRequest{
				Channel: n.opts.Channel,
				File:    artifacts.Resolve(n.opts.Workdir, rel),
				Type:    kind,
			})
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrUploadFailed, rel, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	n.logger.Debug("uploading " + name + " done")
	return nil
}

type runtimeStatusState struct {
	mu      sync.Mutex
	current string
}

func (s *runtimeStatusState) update(status string) (string, string, bool) {
	trimmed := strings.TrimSpace(status)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == trimmed {
		return s.current, trimmed, false
	}
	previous := s.current
	s.current = trimmed
	return previous, trimmed, true
}

func (n *Notifier) setRuntimeStatus(status string) {
	previous, next, changed := n.status.update(status)
	if !changed {
		return
	}
	n.logger.Debug("run status transition",
		logging.Field("from", previous),
		logging.Field("to", next),
	)
	if n.hooks.OnStatusChange != nil {
		n.hooks.OnStatusChange(next)
	}
}
