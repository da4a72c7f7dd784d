package voice

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hearthd/internal/orchestrator"
)

type countingLeaser struct {
	requests int
	releases int
}

func (l *countingLeaser) Request(name string, keepWarm bool) *orchestrator.SlotHandle {
	l.requests++
	return &orchestrator.SlotHandle{Name: name}
}

func (l *countingLeaser) Release(name string) { l.releases++ }

func newTestEngine(t *testing.T, maxMB, maxFiles int) (*Engine, *countingLeaser) {
	t.Helper()
	leaser := &countingLeaser{}
	e, err := New(Config{
		CacheDir:      t.TempDir(),
		MaxCacheMB:    maxMB,
		MaxCacheFiles: maxFiles,
		Leaser:        leaser,
		Logger:        zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e, leaser
}

func TestSynthesizeWritesValidWav(t *testing.T) {
	e, leaser := newTestEngine(t, 0, 0)
	path, err := e.Synthesize("hello there traveler", "mara")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Fatalf("not a RIFF/WAVE file: % x", data[:12])
	}
	if leaser.requests != 1 || leaser.releases != 1 {
		t.Fatalf("expected one paired lease, got req=%d rel=%d", leaser.requests, leaser.releases)
	}
}

func TestSynthesizeCacheHitSkipsModel(t *testing.T) {
	e, leaser := newTestEngine(t, 0, 0)
	first, err := e.Synthesize("the same line", "mara")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	second, err := e.Synthesize("the same line", "mara")
	if err != nil {
		t.Fatalf("synthesize hit: %v", err)
	}
	if first != second {
		t.Fatalf("cache key unstable: %q vs %q", first, second)
	}
	if leaser.requests != 1 {
		t.Fatalf("cache hit must not lease the model, got %d requests", leaser.requests)
	}
}

func TestSynthesizeDistinctVoicesDistinctFiles(t *testing.T) {
	e, _ := newTestEngine(t, 0, 0)
	a, err := e.Synthesize("the same line", "mara")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	b, err := e.Synthesize("the same line", "guild-boss")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if a == b {
		t.Fatalf("two voices share a cache entry")
	}
}

func TestPurgeEvictsOldestBeyondFileCap(t *testing.T) {
	e, _ := newTestEngine(t, 0, 2)
	oldest, err := e.Synthesize("line one", "v")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	// Push mtime into the past so eviction order is unambiguous.
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(oldest, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if _, err := e.Synthesize("line two", "v"); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	newest, err := e.Synthesize("line three", "v")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	if _, err := os.Stat(oldest); !os.IsNotExist(err) {
		t.Fatalf("oldest entry should be purged, stat err=%v", err)
	}
	if _, err := os.Stat(newest); err != nil {
		t.Fatalf("newest entry must survive: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(newest))
	if len(entries) != 2 {
		t.Fatalf("expected 2 cached files, got %d", len(entries))
	}
}

func TestEmptyTextRejected(t *testing.T) {
	e, leaser := newTestEngine(t, 0, 0)
	if _, err := e.Synthesize("", "v"); err == nil {
		t.Fatalf("empty text should fail")
	}
	if leaser.requests != 0 {
		t.Fatalf("failed synthesis must not lease the model")
	}
}
