// SPDX-License-Identifier: MPL-2.0

package notify

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/artinav/artinav/internal/config"
)

// natsURLEnv names a reachable NATS server for the integration tests.
const natsURLEnv = "ARTINAV_TEST_NATS_URL"

func natsURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv(natsURLEnv)
	if url == "" {
		t.Skipf("%s not set; skipping NATS integration test", natsURLEnv)
	}
	return url
}

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()

	url := natsURL(t)
	subject := "artinav.test." + t.Name()
	got := make(chan Event, 1)
	sub, err := Subscribe(url, subject, func(ev Event) { got <- ev })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	t.Cleanup(func() { _ = sub.Close() })

	pub, err := NewPublisher(config.NotifyConfig{NATSURL: url, Subject: subject}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	t.Cleanup(func() { _ = pub.Close() })

	want := Event{Generation: 3, Artifacts: 4, Folders: 2, At: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	if err := pub.Publish(context.Background(), want); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case ev := <-got:
		if ev.Generation != want.Generation || ev.Artifacts != 4 || ev.Folders != 2 || !ev.At.Equal(want.At) {
			t.Errorf("received %+v, want %+v", ev, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestNewPublisher_NopWithoutURL(t *testing.T) {
	t.Parallel()

	pub, err := NewPublisher(config.NotifyConfig{Subject: "x"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := pub.(NopPublisher); !ok {
		t.Fatalf("NewPublisher() = %T, want NopPublisher", pub)
	}
	if err := pub.Publish(context.Background(), Event{}); err != nil {
		t.Errorf("NopPublisher.Publish() = %v", err)
	}
}

func TestConnect_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Connect("nats://127.0.0.1:4222", "", nil); err == nil {
		t.Error("Connect() with empty subject expected error")
	}
	// Port 1 is never a NATS server.
	if _, err := Connect("nats://127.0.0.1:1", "s", log.New(io.Discard)); err == nil {
		t.Error("Connect() to a closed port expected error")
	}
}

func TestPublish_CancelledContext(t *testing.T) {
	t.Parallel()

	pub, err := Connect(natsURL(t), "artinav.test", log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = pub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pub.Publish(ctx, Event{}); err == nil {
		t.Error("Publish() with cancelled context expected error")
	}
}
