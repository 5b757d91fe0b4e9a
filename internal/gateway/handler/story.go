// Package handler exposes the gateway's JSON and websocket endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storygraph/internal/dag"
	"storygraph/internal/gateway/repository/storystore"
	storysvc "storygraph/internal/gateway/service/story"
	"storygraph/internal/topology"
)

type StoryHandler struct {
	svc *storysvc.Service
}

func NewStoryHandler(svc *storysvc.Service) *StoryHandler {
	return &StoryHandler{svc: svc}
}

// generationRequest is the full request body. The narrative fields are
// stored for the content-generation stage; only story_structure, dag_config
// and seed drive the skeleton built here.
type generationRequest struct {
	Theme            string   `json:"theme"`
	AgeGroup         string   `json:"age_group"`
	Language         string   `json:"language"`
	EducationalGoals []string `json:"educational_goals"`
	VocabularyLevel  string   `json:"vocabulary_level"`
	RequiredElements []string `json:"required_elements"`
	Tags             []string `json:"tags"`

	StoryStructure string         `json:"story_structure"`
	DagConfig      *topology.Spec `json:"dag_config"`
	Seed           *int64         `json:"seed"`
}

type generationResponse struct {
	StoryID    string             `json:"story_id"`
	Provenance string             `json:"provenance"`
	Seed       int64              `json:"seed"`
	Conflict   *topology.Conflict `json:"config_conflict,omitempty"`
	DAG        *dag.StoryDAG      `json:"dag"`
}

type fieldErrorBody struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorBody struct {
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Fields  []fieldErrorBody `json:"fields,omitempty"`
}

func (h *StoryHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in generationRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Code: "invalid_json", Message: "invalid json body"})
		return
	}

	res, err := h.svc.Generate(r.Context(), storysvc.GenerateParams{
		Preset: in.StoryStructure,
		Custom: in.DagConfig,
		Narrative: storystore.Narrative{
			Theme:            in.Theme,
			AgeGroup:         in.AgeGroup,
			Language:         in.Language,
			EducationalGoals: in.EducationalGoals,
			VocabularyLevel:  in.VocabularyLevel,
			RequiredElements: in.RequiredElements,
			Tags:             in.Tags,
		},
		Seed: in.Seed,
	})
	if err != nil {
		writeGenerateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generationResponse{
		StoryID:    res.Story.StoryID,
		Provenance: res.Story.Provenance,
		Seed:       res.Story.Seed,
		Conflict:   res.Conflict,
		DAG:        res.Story.DAG,
	})
}

// writeGenerateError maps service errors to status codes: config problems
// are the caller's fault, exhaustion is a server-side failure.
func writeGenerateError(w http.ResponseWriter, err error) {
	var unknownPreset *topology.UnknownPresetError
	if errors.As(err, &unknownPreset) {
		writeError(w, http.StatusBadRequest, errorBody{Code: "unknown_preset", Message: unknownPreset.Error()})
		return
	}
	var invalid *topology.ValidationError
	if errors.As(err, &invalid) {
		body := errorBody{Code: "invalid_config", Message: invalid.Error()}
		for _, f := range invalid.Fields {
			body.Fields = append(body.Fields, fieldErrorBody{Field: f.Field, Message: f.Message})
		}
		writeError(w, http.StatusBadRequest, body)
		return
	}
	if errors.Is(err, dag.ErrGenerationExhausted) {
		writeError(w, http.StatusInternalServerError, errorBody{Code: "generation_exhausted", Message: err.Error()})
		return
	}
	writeError(w, http.StatusInternalServerError, errorBody{Code: "internal", Message: err.Error()})
}

func (h *StoryHandler) HandleGetStory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	storyID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/story/"))
	if storyID == "" {
		writeError(w, http.StatusBadRequest, errorBody{Code: "invalid_argument", Message: "story id is required"})
		return
	}
	story, ok := h.svc.Get(storyID)
	if !ok {
		writeError(w, http.StatusNotFound, errorBody{Code: "not_found", Message: "story " + storyID + " not found"})
		return
	}
	writeJSON(w, http.StatusOK, story)
}

func (h *StoryHandler) HandleListStories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	stories := h.svc.ListRecent(20)
	writeJSON(w, http.StatusOK, map[string]any{
		"stories": stories,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, body)
}
