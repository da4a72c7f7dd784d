package contextengine

import (
	"fmt"

	"hearthd/internal/license"
)

// featureLockedError carries the user-facing denial message for a gated
// capability.
type featureLockedError struct{ msg string }

func (e featureLockedError) Error() string { return e.msg }

// IsFeatureLocked reports whether err is a license denial.
func IsFeatureLocked(err error) bool {
	_, ok := err.(featureLockedError)
	return ok
}

func (e *Engine) checkFeature(feature string) error {
	acc := e.lic.CheckAccess(feature)
	if !acc.Allowed {
		return featureLockedError{msg: acc.Message}
	}
	return nil
}

// AddShadowNode records an unresolved plot thread. Pro feature.
func (e *Engine) AddShadowNode(description string) (int64, error) {
	if err := e.checkFeature(license.FeatureShadowNodes); err != nil {
		return 0, err
	}
	res, err := e.db.Exec(
		`INSERT INTO shadow_nodes (description, status, created_at) VALUES (?, 'open', ?)`,
		description, e.now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert shadow node: %w", err)
	}
	id, _ := res.LastInsertId()
	e.log.Debug().Int64("id", id).Msg("shadow node opened")
	return id, nil
}

// ResolveShadowNode marks a thread as paid off.
func (e *Engine) ResolveShadowNode(id int64) error {
	if err := e.checkFeature(license.FeatureShadowNodes); err != nil {
		return err
	}
	res, err := e.db.Exec(`UPDATE shadow_nodes SET status = 'resolved' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("resolve shadow node: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("shadow node %d not found", id)
	}
	return nil
}

// OpenShadowNodes lists unresolved threads, oldest first. Pro feature.
func (e *Engine) OpenShadowNodes() ([]string, error) {
	if err := e.checkFeature(license.FeatureShadowNodes); err != nil {
		return nil, err
	}
	rows, err := e.db.Query(`SELECT description FROM shadow_nodes WHERE status = 'open' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list shadow nodes: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan shadow node: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
