// Package actions adapts the run to its CI host: outputs, masking, debug
// lines and the failure signal.
package actions

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/x/ansi"
	"github.com/sethvargo/go-githubactions"

	"artifact-notifier/internal/logging"
)

// Host is the reporting port the notifier writes to.
type Host interface {
	Mask(secret string)
	SetOutput(name, value string)
	SetFailed(msg string)
}

type GitHub struct {
	action *githubactions.Action
}

// NewGitHub writes workflow commands to w. Outputs go to the file named by
// GITHUB_OUTPUT when the runner provides one.
func NewGitHub(w io.Writer, opts ...githubactions.Option) *GitHub {
	opts = append([]githubactions.Option{githubactions.WithWriter(w)}, opts...)
	return &GitHub{action: githubactions.New(opts...)}
}

func (g *GitHub) Mask(secret string) {
	if secret == "" {
		return
	}
	g.action.AddMask(secret)
}

func (g *GitHub) SetOutput(name, value string) {
	g.action.SetOutput(name, value)
}

func (g *GitHub) SetFailed(msg string) {
	g.action.Errorf("%s", msg)
}

// Mirror forwards logger events as workflow commands. Debug events become
// ::debug:: lines, which the runner only shows with step debugging on, and
// warnings become annotations. Errors are left to SetFailed.
//
// While mirrored, debug events are not also written to the terminal. The
// returned func detaches the mirror and restores terminal debug output.
func (g *GitHub) Mirror(logger *logging.Logger) func() {
	terminalDebug := logger.DebugEnabled()
	logger.SetDebugEnabled(false)
	unsubscribe := logger.Subscribe(func(event logging.Event) {
		line := ansi.Strip(event.Message) + logging.FormatFields(event.Level, event.Fields)
		switch {
		case event.Level <= slog.LevelDebug:
			g.action.Debugf("%s", line)
		case event.Level == slog.LevelWarn:
			g.action.Warningf("%s", line)
		}
	})
	return func() {
		unsubscribe()
		logger.SetDebugEnabled(terminalDebug)
	}
}
