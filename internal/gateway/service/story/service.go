// Package story orchestrates skeleton generation: it resolves the request's
// topology config, runs the generator, persists the result, and streams
// attempt progress to watchers.
package story

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"storygraph/internal/dag"
	"storygraph/internal/gateway/repository/artifact"
	"storygraph/internal/gateway/repository/storystore"
	"storygraph/internal/gateway/watch"
	"storygraph/internal/topology"
)

type Service struct {
	store       *storystore.Store
	hub         *watch.Hub
	exporter    *artifact.S3Store
	defaultSpec topology.Spec
}

// New wires the service. exporter may be nil; stories are then only kept in
// the local store.
func New(store *storystore.Store, hub *watch.Hub, exporter *artifact.S3Store, defaultSpec topology.Spec) *Service {
	return &Service{
		store:       store,
		hub:         hub,
		exporter:    exporter,
		defaultSpec: defaultSpec,
	}
}

// GenerateParams carries one generation request. Narrative travels through
// untouched; only the preset, custom spec, and seed shape the skeleton.
type GenerateParams struct {
	Preset    string
	Custom    *topology.Spec
	Narrative storystore.Narrative
	// Seed pins the random source for reproducible graphs; nil draws a
	// fresh one.
	Seed *int64
}

// GenerateResult is a stored story plus the non-fatal config conflict
// notice, when the request supplied both a preset and a custom spec.
type GenerateResult struct {
	Story    storystore.Story
	Conflict *topology.Conflict
}

// Generate resolves the config, builds a validated story DAG, and persists
// it. Resolution and validation errors pass through unwrapped so handlers
// can map them to status codes.
func (s *Service) Generate(ctx context.Context, p GenerateParams) (GenerateResult, error) {
	if s == nil {
		return GenerateResult{}, fmt.Errorf("story service is nil")
	}

	spec, prov, conflict, err := topology.Resolve(p.Preset, p.Custom, s.defaultSpec)
	if err != nil {
		return GenerateResult{}, err
	}

	storyID := uuid.NewString()
	var seed int64
	if p.Seed != nil {
		seed = *p.Seed
	} else {
		seed, err = dag.NewSeed()
		if err != nil {
			return GenerateResult{}, fmt.Errorf("seed generation: %w", err)
		}
	}

	d, genErr := dag.GenerateTraced(spec, seed, func(ev dag.TraceEvent) {
		out := watch.Event{
			StoryID: storyID,
			Attempt: ev.Attempt,
			Stage:   ev.Stage,
		}
		if ev.Err != nil {
			out.Error = ev.Err.Error()
		}
		s.hub.Publish(out)
	})
	if genErr != nil {
		s.hub.Publish(watch.Event{StoryID: storyID, Stage: "failed", Error: genErr.Error(), Done: true})
		s.hub.Finish(storyID)
		return GenerateResult{}, genErr
	}

	story := storystore.Story{
		StoryID:    storyID,
		Provenance: prov.String(),
		Seed:       seed,
		Spec:       spec,
		Narrative:  p.Narrative,
		DAG:        d,
	}
	if err := s.store.Put(story); err != nil {
		s.hub.Finish(storyID)
		return GenerateResult{}, fmt.Errorf("store story %s: %w", storyID, err)
	}

	s.export(ctx, story)

	s.hub.Publish(watch.Event{StoryID: storyID, Stage: "stored", Done: true})
	s.hub.Finish(storyID)

	log.Printf("story %s generated: %d nodes, %d edges, pattern=%s provenance=%s",
		storyID, len(d.Nodes), len(d.Edges), spec.Pattern, prov)
	return GenerateResult{Story: story, Conflict: conflict}, nil
}

// export uploads the skeleton JSON for downstream services. Export failures
// are logged, not fatal; the story is already persisted locally.
func (s *Service) export(ctx context.Context, story storystore.Story) {
	if s.exporter == nil {
		return
	}
	data, err := json.Marshal(story)
	if err != nil {
		log.Printf("story %s export marshal failed: %v", story.StoryID, err)
		return
	}
	if err := s.exporter.SaveStory(ctx, story.StoryID, data); err != nil {
		log.Printf("story %s export failed: %v", story.StoryID, err)
	}
}

// Get retrieves a stored story by id.
func (s *Service) Get(storyID string) (storystore.Story, bool) {
	if s == nil {
		return storystore.Story{}, false
	}
	return s.store.Get(storyID)
}

// ListRecent returns up to limit stored stories, newest first.
func (s *Service) ListRecent(limit int) []storystore.Story {
	if s == nil {
		return nil
	}
	return s.store.ListRecent(limit)
}

// Subscribe attaches a watcher to a story's generation progress.
func (s *Service) Subscribe(storyID string) ([]watch.Event, <-chan watch.Event, func(), error) {
	if s == nil {
		return nil, nil, nil, fmt.Errorf("story service is nil")
	}
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return nil, nil, nil, fmt.Errorf("story_id is required")
	}
	if !s.hub.Known(storyID) {
		if _, ok := s.store.Get(storyID); !ok {
			return nil, nil, nil, fmt.Errorf("unknown story %s", storyID)
		}
	}
	replay, ch, cancel := s.hub.Subscribe(storyID)
	return replay, ch, cancel, nil
}
