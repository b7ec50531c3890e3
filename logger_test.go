package yuvtex

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestNopHandler(t *testing.T) {
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("nopHandler.Enabled(%v) = true, want false", level)
		}
	}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("nopHandler.Handle() = %v, want nil", err)
	}
	if _, ok := h.WithAttrs([]slog.Attr{slog.String("key", "val")}).(nopHandler); !ok {
		t.Error("WithAttrs should return nopHandler")
	}
	if _, ok := h.WithGroup("group").(nopHandler); !ok {
		t.Error("WithGroup should return nopHandler")
	}
}

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger should not be enabled for %v", level)
		}
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	SetLogger(custom)

	if Logger() != custom {
		t.Error("Logger() did not return the custom logger")
	}
	Logger().Info("test message", "key", "value")
	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("expected log output to contain 'test message', got: %s", buf.String())
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)

	l := Logger()
	if l == nil {
		t.Fatal("SetLogger(nil) should set nop logger, not nil")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should produce a disabled logger")
	}
}

// loggingUploader records the logger handed to it.
type loggingUploader struct {
	fakeUploader
	mu     sync.Mutex
	logger *slog.Logger
}

func (u *loggingUploader) SetLogger(l *slog.Logger) {
	u.mu.Lock()
	u.logger = l
	u.mu.Unlock()
}

func (u *loggingUploader) current() *slog.Logger {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.logger
}

func TestSetLoggerPropagatesToUploader(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	up := &loggingUploader{}
	p := NewProvider(up)
	if up.current() != Logger() {
		t.Error("NewProvider should hand the current logger to the uploader")
	}

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(custom)
	if up.current() != custom {
		t.Error("SetLogger did not propagate to the uploader")
	}

	p.Close()
	SetLogger(slog.Default())
	if up.current() != custom {
		t.Error("closed provider's uploader still receives loggers")
	}
}

func TestProviderLogsAtDebug(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	p := newTestProvider(t, &fakeUploader{})
	src := newMockSource(99, 4, 4)
	for range 2 {
		if _, err := p.GetTexture(context.Background(), src, TextureDescriptor{}, nil, nil); err != nil {
			t.Fatal(err)
		}
	}
	out := buf.String()
	for _, want := range []string{"extracting planes", "texture uploaded", "cache hit"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
