// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	WriteFiles(t, root, map[string]string{"a/b/c.tsx": "page", "top.txt": ""})

	data, err := os.ReadFile(filepath.Join(root, "a", "b", "c.tsx"))
	if err != nil || string(data) != "page" {
		t.Errorf("ReadFile() = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(root, "top.txt")); err != nil {
		t.Errorf("top.txt missing: %v", err)
	}
}

func TestEventually(t *testing.T) {
	t.Parallel()

	start := time.Now()
	Eventually(t, time.Second, func() bool { return time.Since(start) > 30*time.Millisecond }, "elapsed")
}
