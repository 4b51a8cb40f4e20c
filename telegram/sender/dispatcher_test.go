package sender

import (
	"context"
	"errors"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestDispatcherRunsJob(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4})
	defer d.Close()

	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "test", "sendMessage", func() error {
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()

	err := d.Enqueue(context.Background(), "test", "sendMessage", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestSanitizeErrorMessageRedactsToken(t *testing.T) {
	err := errors.New("telegram: Post https://api.telegram.org/bot12345:AAEabc_def/sendMessage failed")
	got := sanitizeErrorMessage(err)
	if got != "telegram: Post https://api.telegram.org/bot<redacted>/sendMessage failed" {
		t.Fatalf("token not redacted: %s", got)
	}
}

func TestClassifyError(t *testing.T) {
	if kind := classifyError(context.DeadlineExceeded); kind != "timeout" {
		t.Fatalf("expected timeout, got %q", kind)
	}
	if kind := classifyError(&tele.Error{Code: 502, Description: "bad gateway"}); kind != "http_5xx" {
		t.Fatalf("expected http_5xx, got %q", kind)
	}
	if kind := classifyError(&tele.Error{Code: 403, Description: "forbidden"}); kind != "http_4xx" {
		t.Fatalf("expected http_4xx, got %q", kind)
	}
	if kind := classifyError(errors.New("boom")); kind != "unknown" {
		t.Fatalf("expected unknown, got %q", kind)
	}
}
