// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/artinav/artinav/internal/server"
	"github.com/artinav/artinav/internal/testutil"
)

// syncBuffer is a bytes.Buffer safe for a writer and a polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var servingURL = regexp.MustCompile(`Serving catalog at (http://\S+)`)

func TestServe(t *testing.T) {
	t.Parallel()

	dir := artifactsDir(t)
	var stdout, stderr syncBuffer
	app, err := NewApp(Dependencies{Config: staticConfig{}, Stdout: &stdout, Stderr: &stderr})
	if err != nil {
		t.Fatal(err)
	}
	root := NewRootCommand(app)
	root.SetArgs([]string{"serve", "--dir", dir, "--address", "127.0.0.1:0", "--no-watch"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	var base string
	testutil.Eventually(t, 5*time.Second, func() bool {
		if m := servingURL.FindStringSubmatch(stdout.String()); m != nil {
			base = m[1]
			return true
		}
		return false
	}, "server did not report its address")

	resp, err := http.Get(base + "/api/tree")
	if err != nil {
		t.Fatal(err)
	}
	var tree server.TreeResponse
	err = json.NewDecoder(resp.Body).Decode(&tree)
	testutil.MustClose(t, resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tree.Stats.Files != 5 || tree.Error != "" {
		t.Errorf("tree = %+v", tree)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned %v, want nil on interrupt", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}
