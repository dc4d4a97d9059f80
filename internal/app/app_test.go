package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	"artifact-notifier/internal/client"
	"artifact-notifier/internal/config"
	"artifact-notifier/internal/logging"
	"artifact-notifier/internal/runstatus"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingHost struct {
	mu      sync.Mutex
	outputs map[string]string
	failed  []string
}

func (h *recordingHost) Mask(string) {}

func (h *recordingHost) SetOutput(name, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.outputs == nil {
		h.outputs = map[string]string{}
	}
	h.outputs[name] = value
}

func (h *recordingHost) SetFailed(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failed = append(h.failed, msg)
}

type apiCall struct {
	Kind     string // "status" or the attachment type
	Text     string
	Filename string
	Message  map[string]any
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v11.0/me/messages" || r.URL.Query().Get("access_token") != "tok" {
			http.Error(w, "unexpected request", http.StatusNotFound)
			return
		}
		var call apiCall
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			var payload client.StatusPayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode status payload: %v", err)
			}
			call = apiCall{Kind: "status", Text: payload.Message.Text}
		} else {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			if err := json.Unmarshal([]byte(r.FormValue("message")), &call.Message); err != nil {
				t.Errorf("decode message field: %v", err)
			}
			attachment, _ := call.Message["attachment"].(map[string]any)
			call.Kind, _ = attachment["type"].(string)
			if _, header, err := r.FormFile("filedata"); err == nil {
				call.Filename = header.Filename
			} else {
				t.Errorf("filedata: %v", err)
			}
		}
		f.mu.Lock()
		f.calls = append(f.calls, call)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"recipient_id":"1","message_id":"m.1"}`))
	})
}

func (f *fakeAPI) snapshot() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func writeArtifacts(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, name := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func newNotifier(t *testing.T, api *fakeAPI, opts config.Options, host *recordingHost) (*Notifier, func()) {
	t.Helper()
	server := httptest.NewServer(api.handler(t))
	endpoints, err := config.BuildEndpoints(server.URL + "/v11.0")
	if err != nil {
		t.Fatalf("BuildEndpoints() error = %v", err)
	}
	logger := logging.New(false)
	logger.SetTerminalOutputEnabled(false)
	httpClient := server.Client()
	opts.Token = "tok"
	n := New(opts, client.New(httpClient, opts.Token, endpoints, logger), host, logger, Callbacks{})
	return n, func() {
		httpClient.CloseIdleConnections()
		server.Close()
	}
}

func TestRun_NothingFoundSetsResultWithoutNetwork(t *testing.T) {
	root := t.TempDir()
	writeArtifacts(t, root, "reports/junit.xml", "screenshots/keep.jpg")

	api := &fakeAPI{}
	host := &recordingHost{}
	n, done := newNotifier(t, api, config.Options{Channel: "thread", Workdir: root}, host)
	defer done()

	if err := n.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := host.outputs[runstatus.ResultOutput]; got != "No videos or screenshots found!" {
		t.Fatalf("result output = %q", got)
	}
	if calls := api.snapshot(); len(calls) != 0 {
		t.Fatalf("expected no API calls, got %#v", calls)
	}
}

func TestRun_StatusThenScreenshotsThenVideos(t *testing.T) {
	root := t.TempDir()
	writeArtifacts(t, root, "screenshots/foo.png", "videos/bar.mp4")

	api := &fakeAPI{}
	host := &recordingHost{}
	n, done := newNotifier(t, api, config.Options{Channel: "thread", Workdir: root}, host)
	defer done()

	var phases []string
	n.hooks.OnStatusChange = func(status string) { phases = append(phases, status) }

	if err := n.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	calls := api.snapshot()
	if len(calls) != 3 {
		t.Fatalf("expected 3 API calls, got %#v", calls)
	}
	if calls[0].Kind != "status" || calls[0].Text != "I've got test results coming in from Cypress. Hold tight ..." {
		t.Fatalf("first call = %#v, want status message with default text", calls[0])
	}
	if calls[1].Kind != "image" || calls[1].Filename != "foo.png" {
		t.Fatalf("second call = %#v, want image upload of foo.png", calls[1])
	}
	if calls[2].Kind != "file" || calls[2].Filename != "bar.mp4" {
		t.Fatalf("third call = %#v, want file upload of bar.mp4", calls[2])
	}
	if _, ok := host.outputs[runstatus.ResultOutput]; ok {
		t.Fatalf("result output must only be set when nothing is found")
	}

	wantPhases := []string{
		runstatus.Scanning,
		runstatus.Notifying,
		runstatus.UploadingScreenshots,
		runstatus.UploadingVideos,
		runstatus.Done,
	}
	if strings.Join(phases, "|") != strings.Join(wantPhases, "|") {
		t.Fatalf("phases = %v, want %v", phases, wantPhases)
	}
}

func TestRun_AttachmentTypeFollowsExtension(t *testing.T) {
	root := t.TempDir()
	writeArtifacts(t, root,
		"screenshots/a.png",
		"screenshots/login/b.png",
		"screenshots/login/c.png",
		"videos/a.mp4",
		"videos/nested/b.mp4",
	)

	api := &fakeAPI{}
	n, done := newNotifier(t, api, config.Options{Channel: "thread", Workdir: root, MessageText: "custom"}, &recordingHost{})
	defer done()

	if err := n.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	calls := api.snapshot()
	if len(calls) != 6 {
		t.Fatalf("expected 6 API calls, got %d", len(calls))
	}
	if calls[0].Text != "custom" {
		t.Fatalf("status text = %q, want custom", calls[0].Text)
	}
	for i, call := range calls[1:] {
		want := "image"
		if strings.HasSuffix(call.Filename, ".mp4") {
			want = "file"
		}
		if call.Kind != want {
			t.Fatalf("upload %s type = %q, want %q", call.Filename, call.Kind, want)
		}
		payload, _ := call.Message["attachment"].(map[string]any)["payload"].(map[string]any)
		if reusable, ok := payload["is_reusable"].(bool); !ok || reusable {
			t.Fatalf("upload %s is_reusable = %v", call.Filename, payload["is_reusable"])
		}
		// Screenshot wave finishes before the video wave starts.
		if (i < 3 && want != "image") || (i >= 3 && want != "file") {
			t.Fatalf("call %d (%s) out of wave order", i+1, call.Filename)
		}
	}
}

func TestRun_DefaultWorkdirIsCypress(t *testing.T) {
	cwd := t.TempDir()
	writeArtifacts(t, cwd, "cypress/screenshots/only.png", "elsewhere/ignored.mp4")
	t.Chdir(cwd)

	api := &fakeAPI{}
	n, done := newNotifier(t, api, config.Options{Channel: "thread"}, &recordingHost{})
	defer done()

	if err := n.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	calls := api.snapshot()
	if len(calls) != 2 || calls[1].Filename != "only.png" {
		t.Fatalf("calls = %#v, want status + only.png", calls)
	}
}

type scriptedMessenger struct {
	statusErr error
	failFile  string
	uploads   atomic.Int32
}

func (m *scriptedMessenger) SendStatus(context.Context, string, string) (client.Response, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return client.Response{}, nil
}

func (m *scriptedMessenger) PostFile(ctx context.Context, upload client.UploadRequest) (client.Response, error) {
	m.uploads.Add(1)
	if m.failFile != "" && strings.HasSuffix(upload.File, m.failFile) {
		return nil, errors.New("connection reset by peer")
	}
	return client.Response{}, nil
}

func newScriptedNotifier(t *testing.T, m *scriptedMessenger, root string) *Notifier {
	t.Helper()
	logger := logging.New(false)
	logger.SetTerminalOutputEnabled(false)
	return New(config.Options{Channel: "thread", Workdir: root}, m, &recordingHost{}, logger, Callbacks{})
}

func TestRun_StatusFailureSkipsUploads(t *testing.T) {
	root := t.TempDir()
	writeArtifacts(t, root, "a.png", "b.mp4")

	m := &scriptedMessenger{statusErr: errors.New("dial tcp: connection refused")}
	err := newScriptedNotifier(t, m, root).Run(context.Background())
	if !errors.Is(err, ErrStatusMessage) {
		t.Fatalf("Run() error = %v, want ErrStatusMessage", err)
	}
	if !strings.Contains(FailureMessage(err), "connection refused") {
		t.Fatalf("FailureMessage() = %q", FailureMessage(err))
	}
	if got := m.uploads.Load(); got != 0 {
		t.Fatalf("uploads = %d, want 0", got)
	}
}

func TestRun_ScreenshotFailureStopsBeforeVideos(t *testing.T) {
	root := t.TempDir()
	writeArtifacts(t, root, "s/1.png", "s/2.png", "s/3.png", "v/1.mp4")

	m := &scriptedMessenger{failFile: "2.png"}
	err := newScriptedNotifier(t, m, root).Run(context.Background())
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("Run() error = %v, want ErrUploadFailed", err)
	}
	if !strings.Contains(err.Error(), "s/2.png") {
		t.Fatalf("error should name the failed artifact: %v", err)
	}
	if got := m.uploads.Load(); got != 3 {
		t.Fatalf("uploads = %d, want only the 3 screenshots", got)
	}
}

func TestRun_MissingWorkdirFails(t *testing.T) {
	m := &scriptedMessenger{}
	err := newScriptedNotifier(t, m, filepath.Join(t.TempDir(), "missing")).Run(context.Background())
	if !errors.Is(err, ErrScanFailed) {
		t.Fatalf("Run() error = %v, want ErrScanFailed", err)
	}
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name    string
		failure any
		want    string
	}{
		{name: "string", failure: "plain failure", want: "plain failure"},
		{name: "error", failure: errors.New("wrapped"), want: "wrapped"},
		{name: "other", failure: 42, want: "42"},
		{name: "nil", failure: nil, want: "unknown failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FailureMessage(tt.failure); got != tt.want {
				t.Fatalf("FailureMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
