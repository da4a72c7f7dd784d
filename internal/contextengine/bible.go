package contextengine

import (
	"fmt"
	"sort"
	"strings"
)

// Entry is one series-bible record with its retrieval score.
type Entry struct {
	ID      int64   `json:"id"`
	Topic   string  `json:"topic"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// AddEntry embeds and stores one bible record.
func (e *Engine) AddEntry(topic, content string) (int64, error) {
	vec := e.embed(topic + " " + content)
	res, err := e.db.Exec(
		`INSERT INTO series_bible (topic, content, embedding, updated_at) VALUES (?, ?, ?, ?)`,
		topic, content, encodeVec(vec), e.now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert bible entry: %w", err)
	}
	id, _ := res.LastInsertId()
	e.log.Debug().Str("topic", topic).Int64("id", id).Msg("bible entry added")
	return id, nil
}

// Retrieve returns the k entries most similar to the query, best first.
// The whole table is scanned; the bible is a personal artifact measured in
// hundreds of rows, not millions.
func (e *Engine) Retrieve(query string, k int) ([]Entry, error) {
	if k <= 0 {
		k = 3
	}
	qv := e.embed(query)

	rows, err := e.db.Query(`SELECT id, topic, content, embedding FROM series_bible`)
	if err != nil {
		return nil, fmt.Errorf("scan bible: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var ent Entry
		var blob []byte
		if err := rows.Scan(&ent.ID, &ent.Topic, &ent.Content, &blob); err != nil {
			return nil, fmt.Errorf("scan bible row: %w", err)
		}
		ent.Score = cosine(qv, decodeVec(blob))
		out = append(out, ent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan bible: %w", err)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// AugmentPrompt assembles the retrieval block and, when the tier allows
// it, the open shadow-node block for a generation request.
func (e *Engine) AugmentPrompt(query string, includeShadowNodes bool) (contextBlock, shadowBlock string, err error) {
	entries, err := e.Retrieve(query, 3)
	if err != nil {
		return "", "", err
	}
	var b strings.Builder
	for _, ent := range entries {
		if ent.Score <= 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", ent.Topic, ent.Content)
	}
	contextBlock = strings.TrimRight(b.String(), "\n")

	if includeShadowNodes {
		nodes, err := e.OpenShadowNodes()
		if err != nil {
			return "", "", err
		}
		shadowBlock = strings.Join(nodes, "\n")
	}
	return contextBlock, shadowBlock, nil
}
