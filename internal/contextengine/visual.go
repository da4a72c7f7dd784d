package contextengine

import (
	"database/sql"
	"fmt"

	"hearthd/internal/license"
)

// SetVisualState records a character's current on-page appearance for
// comic continuity (costume, injuries, props). Pro feature.
func (e *Engine) SetVisualState(character, description string) error {
	if err := e.checkFeature(license.FeatureVisualTracking); err != nil {
		return err
	}
	_, err := e.db.Exec(
		`INSERT INTO visual_state (character, description, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(character) DO UPDATE SET description = excluded.description, updated_at = excluded.updated_at`,
		character, description, e.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert visual state: %w", err)
	}
	return nil
}

// VisualState returns a character's recorded appearance, or "" when the
// character has never been drawn.
func (e *Engine) VisualState(character string) (string, error) {
	if err := e.checkFeature(license.FeatureVisualTracking); err != nil {
		return "", err
	}
	var d string
	err := e.db.QueryRow(`SELECT description FROM visual_state WHERE character = ?`, character).Scan(&d)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query visual state: %w", err)
	}
	return d, nil
}
