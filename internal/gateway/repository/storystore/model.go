package storystore

import (
	"strings"
	"time"

	"storygraph/internal/dag"
	"storygraph/internal/topology"
)

// Story is one generated skeleton together with the spec that produced it,
// kept for the content-generation and rendering collaborators to pick up.
type Story struct {
	StoryID    string        `json:"story_id"`
	Provenance string        `json:"provenance"`
	Seed       int64         `json:"seed"`
	Spec       topology.Spec `json:"spec"`
	Narrative  Narrative     `json:"narrative"`
	DAG        *dag.StoryDAG `json:"dag"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Narrative is the request's content brief. The structural generator never
// reads it; it travels with the skeleton for the content-filling stage.
type Narrative struct {
	Theme            string   `json:"theme,omitempty"`
	AgeGroup         string   `json:"age_group,omitempty"`
	Language         string   `json:"language,omitempty"`
	EducationalGoals []string `json:"educational_goals,omitempty"`
	VocabularyLevel  string   `json:"vocabulary_level,omitempty"`
	RequiredElements []string `json:"required_elements,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

func normalizeStory(s Story) Story {
	s.StoryID = strings.TrimSpace(s.StoryID)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return s
}
