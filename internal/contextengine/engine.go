// Package contextengine retrieves story context for prompt augmentation:
// series-bible entries ranked by embedding similarity, open shadow nodes
// (unresolved plot threads), and per-character visual state for comic
// continuity. Everything lives in one local sqlite database; retrieval is
// a brute-force cosine scan, which is plenty for a single writer's bible.
package contextengine

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"hearthd/internal/license"
	"hearthd/internal/orchestrator"
)

// EmbedModel is the slot name leased for each embedding micro-transaction.
const EmbedModel = "all-MiniLM-L6-v2"

// ModelLeaser is the narrow slice of the orchestrator the engine needs:
// a short-lived lease on the embedding model around each embed call.
// *orchestrator.Orchestrator satisfies it.
type ModelLeaser interface {
	Request(name string, keepWarm bool) *orchestrator.SlotHandle
	Release(name string)
}

const schema = `
CREATE TABLE IF NOT EXISTS series_bible (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	topic      TEXT NOT NULL,
	content    TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS shadow_nodes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	description TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'open',
	created_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS visual_state (
	character   TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
`

// Engine owns the sqlite handle and the embedding lease discipline.
type Engine struct {
	db     *sql.DB
	leaser ModelLeaser
	lic    *license.Validator
	log    zerolog.Logger
	now    func() time.Time
}

// Config carries Engine construction parameters.
type Config struct {
	// Path is the sqlite database file; ":memory:" works for tests.
	Path    string
	Leaser  ModelLeaser
	License *license.Validator
	Logger  zerolog.Logger
	Clock   func() time.Time
}

// Open opens (creating if needed) the context database and ensures the
// schema exists.
func Open(cfg Config) (*Engine, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("context database path is empty")
	}
	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open context db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create context schema: %w", err)
	}
	e := &Engine{
		db:     db,
		leaser: cfg.Leaser,
		lic:    cfg.License,
		log:    cfg.Logger,
		now:    cfg.Clock,
	}
	if e.lic == nil {
		e.lic = license.FromEnv()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Close releases the database handle.
func (e *Engine) Close() error { return e.db.Close() }

// embed leases the embedding model for exactly one call. The lease is a
// micro-transaction: released before returning, never pinned, so the
// orchestrator can evict the slot the moment something else needs room.
func (e *Engine) embed(text string) []float32 {
	if e.leaser != nil {
		e.leaser.Request(EmbedModel, false)
		defer e.leaser.Release(EmbedModel)
	}
	return embedText(text)
}
