// Package voice synthesizes character speech into wav files and caches
// them on disk so repeated lines cost nothing. Synthesis leases the TTS
// model through the orchestrator for the duration of one call.
package voice

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"hearthd/internal/orchestrator"
)

// TTSModel is the slot name leased around each synthesis call.
const TTSModel = "coqui-tts"

// Defaults for the disk cache caps.
const (
	defaultMaxCacheMB    = 200
	defaultMaxCacheFiles = 500
)

// ModelLeaser matches the orchestrator's request/release surface.
type ModelLeaser interface {
	Request(name string, keepWarm bool) *orchestrator.SlotHandle
	Release(name string)
}

// Engine owns the cache directory and the synthesis lease discipline.
type Engine struct {
	dir      string
	maxBytes int64
	maxFiles int
	leaser   ModelLeaser
	log      zerolog.Logger
}

// Config carries Engine construction parameters.
type Config struct {
	// CacheDir holds the synthesized wav files.
	CacheDir string
	// MaxCacheMB caps the total cache size; 0 means the default.
	MaxCacheMB int
	// MaxCacheFiles caps the file count; 0 means the default.
	MaxCacheFiles int
	Leaser        ModelLeaser
	Logger        zerolog.Logger
}

// New prepares the cache directory and returns the engine.
func New(cfg Config) (*Engine, error) {
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("voice cache dir is empty")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create voice cache dir: %w", err)
	}
	e := &Engine{
		dir:      cfg.CacheDir,
		maxBytes: int64(cfg.MaxCacheMB) * 1024 * 1024,
		maxFiles: cfg.MaxCacheFiles,
		leaser:   cfg.Leaser,
		log:      cfg.Logger,
	}
	if e.maxBytes <= 0 {
		e.maxBytes = defaultMaxCacheMB * 1024 * 1024
	}
	if e.maxFiles <= 0 {
		e.maxFiles = defaultMaxCacheFiles
	}
	return e, nil
}

// cacheKey derives the file name from text plus the voice identity, so the
// same line in two voices never collides.
func cacheKey(text, voice string) string {
	sum := sha256.Sum256([]byte(voice + "\x00" + text))
	return hex.EncodeToString(sum[:]) + ".wav"
}

// Synthesize returns the path of a wav for the line, generating it on a
// cache miss. Hits cost no model time at all.
func (e *Engine) Synthesize(text, voice string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("nothing to synthesize")
	}
	path := filepath.Join(e.dir, cacheKey(text, voice))
	if _, err := os.Stat(path); err == nil {
		e.log.Debug().Str("voice", voice).Msg("voice cache hit")
		return path, nil
	}

	if e.leaser != nil {
		e.leaser.Request(TTSModel, false)
		defer e.leaser.Release(TTSModel)
	}

	wav := renderWav(text)
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return "", fmt.Errorf("write wav: %w", err)
	}
	e.log.Info().Str("voice", voice).Int("bytes", len(wav)).Msg("voice synthesized")

	if err := e.purge(); err != nil {
		e.log.Warn().Err(err).Msg("voice cache purge failed")
	}
	return path, nil
}

// purge deletes the oldest wav files until both caps hold again. The file
// just written is the newest, so it always survives.
func (e *Engine) purge() error {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return err
	}
	type cached struct {
		path  string
		size  int64
		mtime int64
	}
	var files []cached
	var total int64
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".wav" {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		files = append(files, cached{
			path:  filepath.Join(e.dir, ent.Name()),
			size:  info.Size(),
			mtime: info.ModTime().UnixNano(),
		})
		total += info.Size()
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mtime < files[j].mtime })

	for len(files) > 0 && (total > e.maxBytes || len(files) > e.maxFiles) {
		victim := files[0]
		files = files[1:]
		if err := os.Remove(victim.path); err != nil {
			return err
		}
		total -= victim.size
		e.log.Debug().Str("file", filepath.Base(victim.path)).Msg("voice cache evicted")
	}
	return nil
}

// Collapse releases any lingering TTS lease. Safe to call at shutdown even
// if no synthesis ever ran.
func (e *Engine) Collapse() {
	if e.leaser != nil {
		e.leaser.Release(TTSModel)
	}
}
