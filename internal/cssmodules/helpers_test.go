package icm

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// recordingBackend remembers every record it was handed.
type recordingBackend struct {
	mu      sync.Mutex
	records []*StyleRecord
	err     error
}

func (b *recordingBackend) OnRecordReady(_ context.Context, rec *StyleRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.records = append(b.records, rec)
	return nil
}

func (b *recordingBackend) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.records))
	for _, rec := range b.records {
		names = append(names, rec.Name)
	}
	return names
}

// staticFetch returns a copy of rec for every load.
func staticFetch(rec StyleRecord) FetchFunc {
	return func(context.Context, Load) (*StyleRecord, error) {
		out := rec
		return &out, nil
	}
}

func mustRecord(t *testing.T, name, source string, deps ...string) *StyleRecord {
	t.Helper()
	rec, err := NewStyleRecord(name, source, nil, deps)
	if err != nil {
		t.Fatalf("NewStyleRecord(%q) error = %v", name, err)
	}
	return rec
}

// writeFiles writes files (slash-separated path -> content) under root.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func resetEnv() {
	for _, key := range []string{modeKey, rootKey, strategyKey, portKey, logLevelKey, logFormatKey} {
		os.Unsetenv(key)
	}
}
