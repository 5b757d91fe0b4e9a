package storystore

import (
	"encoding/json"
	"strings"
	"time"

	"storygraph/internal/dag"
	"storygraph/internal/topology"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS stories (
  story_id TEXT PRIMARY KEY,
  provenance TEXT NOT NULL DEFAULT '',
  seed BIGINT NOT NULL DEFAULT 0,
  spec JSONB NOT NULL,
  narrative JSONB NOT NULL DEFAULT '{}',
  dag JSONB NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_stories_created_at ON stories (created_at DESC);
`)
	})
	return s.schemaErr
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStoryDB(row rowScanner) (Story, bool) {
	var (
		story    Story
		specJSON []byte
		narrJSON []byte
		dagJSON  []byte
		created  time.Time
	)
	err := row.Scan(&story.StoryID, &story.Provenance, &story.Seed, &specJSON, &narrJSON, &dagJSON, &created)
	if err != nil {
		return Story{}, false
	}
	var spec topology.Spec
	if err := json.Unmarshal(specJSON, &spec); err != nil {
		return Story{}, false
	}
	if err := json.Unmarshal(narrJSON, &story.Narrative); err != nil {
		return Story{}, false
	}
	var d dag.StoryDAG
	if err := json.Unmarshal(dagJSON, &d); err != nil {
		return Story{}, false
	}
	story.Spec = spec
	story.DAG = &d
	story.CreatedAt = created
	return story, true
}

func (s *Store) putDB(story Story) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	specJSON, err := json.Marshal(story.Spec)
	if err != nil {
		return err
	}
	narrJSON, err := json.Marshal(story.Narrative)
	if err != nil {
		return err
	}
	dagJSON, err := json.Marshal(story.DAG)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
INSERT INTO stories (story_id, provenance, seed, spec, narrative, dag, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (story_id)
DO UPDATE SET provenance=EXCLUDED.provenance,
  seed=EXCLUDED.seed,
  spec=EXCLUDED.spec,
  narrative=EXCLUDED.narrative,
  dag=EXCLUDED.dag`,
		story.StoryID, story.Provenance, story.Seed, specJSON, narrJSON, dagJSON, story.CreatedAt)
	return err
}

func (s *Store) getDB(storyID string) (Story, bool) {
	if err := s.ensureSchema(); err != nil {
		return Story{}, false
	}
	id := strings.TrimSpace(storyID)
	if id == "" {
		return Story{}, false
	}
	row := s.db.QueryRow(`SELECT story_id, provenance, seed, spec, narrative, dag, created_at
FROM stories WHERE story_id = $1`, id)
	return scanStoryDB(row)
}

func (s *Store) listRecentDB(limit int) []Story {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	rows, err := s.db.Query(`SELECT story_id, provenance, seed, spec, narrative, dag, created_at
FROM stories ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []Story
	for rows.Next() {
		if story, ok := scanStoryDB(rows); ok {
			out = append(out, story)
		}
	}
	if err := rows.Err(); err != nil {
		return out
	}
	return out
}
