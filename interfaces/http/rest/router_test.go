package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"heterobatch/application/services"
	"heterobatch/infrastructure/config"
	"heterobatch/infrastructure/persistence/memory"
	pkgerrors "heterobatch/pkg/errors"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Environment:  "development",
		EnableCORS:   false,
		MaxBatchSize: 16,
		MaxGraphs:    100,
	}
	logger := zap.NewNop()
	store := memory.NewGraphStore(cfg.MaxGraphs, logger)
	service := services.NewBatchService(store, cfg, logger)
	errorHandler := pkgerrors.NewErrorHandler(logger, false)

	srv := httptest.NewServer(NewRouter(service, errorHandler, cfg, logger).Setup())
	t.Cleanup(srv.Close)
	return srv
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	var env apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func createSocialGraph(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/v1/graphs", map[string]interface{}{
		"relations": []map[string]interface{}{
			{
				"src_type": "user", "name": "follows", "dst_type": "user",
				"edges": [][2]int{{0, 1}, {1, 2}},
			},
			{
				"src_type": "user", "name": "plays", "dst_type": "game",
				"edges": [][2]int{{0, 0}, {1, 0}},
			},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var graph struct {
		ID string `json:"id"`
	}
	decodeData(t, resp, &graph)
	require.NotEmpty(t, graph.ID)
	return graph.ID
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndGetGraph(t *testing.T) {
	srv := newTestServer(t)
	graphID := createSocialGraph(t, srv)

	resp, err := http.Get(srv.URL + "/api/v1/graphs/" + graphID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var graph struct {
		ID        string         `json:"id"`
		NumNodes  map[string]int `json:"num_nodes"`
		IsBatch   bool           `json:"is_batch"`
		BatchSize int            `json:"batch_size"`
	}
	decodeData(t, resp, &graph)
	assert.Equal(t, graphID, graph.ID)
	assert.Equal(t, map[string]int{"user": 3, "game": 1}, graph.NumNodes)
	assert.False(t, graph.IsBatch)
	assert.Equal(t, 1, graph.BatchSize)
}

func TestCreateGraphValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/graphs", map[string]interface{}{
		"relations": []map[string]interface{}{},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetMissingGraph(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/graphs/no-such-graph")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSetAttributeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	graphID := createSocialGraph(t, srv)

	resp := postJSON(t, srv.URL+"/api/v1/graphs/"+graphID+"/attributes", map[string]interface{}{
		"target":    "node",
		"node_type": "user",
		"name":      "h",
		"values":    [][]float64{{1, 2}, {3, 4}, {5, 6}},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp2 := postJSON(t, srv.URL+"/api/v1/graphs/"+graphID+"/attributes", map[string]interface{}{
		"target":   "edge",
		"relation": "user:follows:user",
		"name":     "w",
		"values":   [][]float64{{1}, {2}},
	})
	defer resp2.Body.Close()
	require.Equal(t, http.StatusNoContent, resp2.StatusCode)

	// Row count mismatch surfaces as a validation failure.
	resp3 := postJSON(t, srv.URL+"/api/v1/graphs/"+graphID+"/attributes", map[string]interface{}{
		"target":    "node",
		"node_type": "user",
		"name":      "bad",
		"values":    [][]float64{{1}},
	})
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

func TestBatchLifecycle(t *testing.T) {
	srv := newTestServer(t)
	g1 := createSocialGraph(t, srv)
	g2 := createSocialGraph(t, srv)

	resp := postJSON(t, srv.URL+"/api/v1/batches", map[string]interface{}{
		"graph_ids": []string{g1, g2},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var batchGraph struct {
		ID            string           `json:"id"`
		NumNodes      map[string]int   `json:"num_nodes"`
		IsBatch       bool             `json:"is_batch"`
		BatchSize     int              `json:"batch_size"`
		BatchNumNodes map[string][]int `json:"batch_num_nodes"`
	}
	decodeData(t, resp, &batchGraph)
	assert.True(t, batchGraph.IsBatch)
	assert.Equal(t, 2, batchGraph.BatchSize)
	assert.Equal(t, map[string]int{"user": 6, "game": 2}, batchGraph.NumNodes)
	assert.Equal(t, []int{3, 3}, batchGraph.BatchNumNodes["user"])

	getResp, err := http.Get(srv.URL + "/api/v1/batches/" + batchGraph.ID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	unbatchResp := postJSON(t, srv.URL+"/api/v1/batches/"+batchGraph.ID+"/unbatch", nil)
	require.Equal(t, http.StatusOK, unbatchResp.StatusCode)

	var split struct {
		BatchID string `json:"batch_id"`
		Graphs  []struct {
			ID       string         `json:"id"`
			NumNodes map[string]int `json:"num_nodes"`
		} `json:"graphs"`
	}
	decodeData(t, unbatchResp, &split)
	assert.Equal(t, batchGraph.ID, split.BatchID)
	require.Len(t, split.Graphs, 2)
	for _, g := range split.Graphs {
		assert.Equal(t, map[string]int{"user": 3, "game": 1}, g.NumNodes)
	}
}

func TestGetBatchRejectsPlainGraph(t *testing.T) {
	srv := newTestServer(t)
	graphID := createSocialGraph(t, srv)

	resp, err := http.Get(srv.URL + "/api/v1/batches/" + graphID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestBatchWithExplicitPolicies(t *testing.T) {
	srv := newTestServer(t)
	g1 := createSocialGraph(t, srv)
	g2 := createSocialGraph(t, srv)

	for _, id := range []string{g1, g2} {
		resp := postJSON(t, srv.URL+"/api/v1/graphs/"+id+"/attributes", map[string]interface{}{
			"target":    "node",
			"node_type": "user",
			"name":      "h",
			"values":    [][]float64{{1}, {2}, {3}},
		})
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	resp := postJSON(t, srv.URL+"/api/v1/batches", map[string]interface{}{
		"graph_ids":  []string{g1, g2},
		"node_attrs": map[string]interface{}{"mode": "explicit", "names": map[string]string{"user": "h"}},
		"edge_attrs": map[string]interface{}{"mode": "none"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var batchGraph struct {
		NodeAttrs map[string][]string `json:"node_attrs"`
		EdgeAttrs map[string][]string `json:"edge_attrs"`
	}
	decodeData(t, resp, &batchGraph)
	assert.Equal(t, []string{"h"}, batchGraph.NodeAttrs["user"])
	assert.Empty(t, batchGraph.EdgeAttrs)
}

func TestUnbatchPlainGraphFails(t *testing.T) {
	srv := newTestServer(t)
	graphID := createSocialGraph(t, srv)

	resp := postJSON(t, srv.URL+"/api/v1/batches/"+graphID+"/unbatch", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
