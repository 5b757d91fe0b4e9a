package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygraph/internal/gateway/repository/storystore"
	storysvc "storygraph/internal/gateway/service/story"
	"storygraph/internal/gateway/watch"
	"storygraph/internal/topology"
)

func newTestHandler(t *testing.T) *StoryHandler {
	t.Helper()
	store := storystore.New(filepath.Join(t.TempDir(), "stories.json"))
	defaultSpec := topology.Spec{
		NodeCount:        12,
		Pattern:          topology.SingleConvergence,
		ConvergenceRatio: topology.Ratio(0.5),
		MaxDepth:         8,
		BranchingFactor:  2,
	}
	svc := storysvc.New(store, watch.NewHub(), nil, defaultSpec)
	return NewStoryHandler(svc)
}

func postGenerate(t *testing.T, h *StoryHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.HandleGenerate(rec, req)
	return rec
}

func TestHandleGeneratePreset(t *testing.T) {
	h := newTestHandler(t)
	rec := postGenerate(t, h, `{"theme":"space","story_structure":"guided"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out generationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.StoryID)
	assert.Equal(t, "Preset(guided)", out.Provenance)
	require.NotNil(t, out.DAG)
	assert.Len(t, out.DAG.Nodes, 12)

	// The stored story is retrievable by id.
	req := httptest.NewRequest(http.MethodGet, "/api/story/"+out.StoryID, nil)
	getRec := httptest.NewRecorder()
	h.HandleGetStory(getRec, req)
	assert.Equal(t, http.StatusOK, getRec.Code)
	assert.True(t, strings.Contains(getRec.Body.String(), out.StoryID))
	// The narrative brief rides along with the stored skeleton.
	assert.True(t, strings.Contains(getRec.Body.String(), `"theme":"space"`))
}

func TestHandleGenerateConflictNotice(t *testing.T) {
	h := newTestHandler(t)
	rec := postGenerate(t, h, `{"story_structure":"epic","dag_config":{"node_count":10,"convergence_pattern":"PureBranching","max_depth":6,"branching_factor":2}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out generationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotNil(t, out.Conflict)
	assert.Equal(t, "epic", out.Conflict.Preset)
	assert.Contains(t, out.Conflict.Discarded, "node_count")
	// The preset's shape won, not the custom one.
	assert.Len(t, out.DAG.Nodes, 24)
}

func TestHandleGenerateUnknownPreset(t *testing.T) {
	h := newTestHandler(t)
	rec := postGenerate(t, h, `{"story_structure":"mystery"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var out errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "unknown_preset", out.Code)
}

func TestHandleGenerateInvalidConfig(t *testing.T) {
	h := newTestHandler(t)
	rec := postGenerate(t, h, `{"dag_config":{"node_count":150,"convergence_pattern":"SingleConvergence","convergence_point_ratio":0.5,"max_depth":8,"branching_factor":2}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var out errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "invalid_config", out.Code)
	require.Len(t, out.Fields, 1)
	assert.Equal(t, "node_count", out.Fields[0].Field)
}

func TestHandleGenerateBadJSON(t *testing.T) {
	h := newTestHandler(t)
	rec := postGenerate(t, h, `{`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var out errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "invalid_json", out.Code)
}

func TestHandleGenerateSeededReproducible(t *testing.T) {
	h := newTestHandler(t)
	body := `{"story_structure":"guided","seed":7}`
	first := postGenerate(t, h, body)
	second := postGenerate(t, h, body)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b generationResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.DAG.Edges, b.DAG.Edges)
}

func TestHandleGetStoryNotFound(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/story/nope", nil)
	rec := httptest.NewRecorder()
	h.HandleGetStory(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var out errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "not_found", out.Code)
}

func TestHandleGenerateMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/generate", nil)
	rec := httptest.NewRecorder()
	h.HandleGenerate(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
