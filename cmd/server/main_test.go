package main

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTransport keeps events in memory and counts flushes.
type recordingTransport struct {
	mu      sync.Mutex
	events  []*sentry.Event
	flushes int
}

func (tr *recordingTransport) Configure(sentry.ClientOptions) {}
func (tr *recordingTransport) Close()                         {}

func (tr *recordingTransport) SendEvent(e *sentry.Event) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.events = append(tr.events, e)
}

func (tr *recordingTransport) Flush(time.Duration) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.flushes++
	return true
}

func stubExit(t *testing.T) *int {
	t.Helper()
	code := -1
	prev := osExit
	osExit = func(c int) { code = c }
	t.Cleanup(func() { osExit = prev })
	return &code
}

func TestFatal_FlushesSentryBeforeExit(t *testing.T) {
	code := stubExit(t)

	tr := &recordingTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{Transport: tr})
	require.NoError(t, err)
	hub := sentry.CurrentHub()
	prev := hub.Client()
	hub.BindClient(client)
	t.Cleanup(func() { hub.BindClient(prev) })

	var logs bytes.Buffer
	fatal(slog.New(slog.NewJSONHandler(&logs, nil)), "init app", errors.New("otel resource"))

	assert.Equal(t, 1, *code)
	assert.Contains(t, logs.String(), `"msg":"init app"`)
	assert.Contains(t, logs.String(), `"error":"otel resource"`)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	require.Len(t, tr.events, 1)
	require.NotEmpty(t, tr.events[0].Exception)
	assert.Equal(t, "otel resource", tr.events[0].Exception[0].Value)
	assert.Equal(t, 1, tr.flushes)
}

func TestFatal_WithoutSentryStillExits(t *testing.T) {
	code := stubExit(t)

	hub := sentry.CurrentHub()
	prev := hub.Client()
	hub.BindClient(nil)
	t.Cleanup(func() { hub.BindClient(prev) })

	var logs bytes.Buffer
	fatal(slog.New(slog.NewJSONHandler(&logs, nil)), "load config", errors.New("bad yaml"))

	assert.Equal(t, 1, *code)
	assert.Contains(t, logs.String(), `"msg":"load config"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
