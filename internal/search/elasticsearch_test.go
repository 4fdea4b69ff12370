package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ticketnow/internal/config"
	"ticketnow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *ElasticsearchClient {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the client refuses to talk to servers that do not identify as Elasticsearch
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewElasticsearchClient(config.ElasticsearchConfig{URL: srv.URL, Index: "events"})
	require.NoError(t, err)
	return client
}

func TestSearchEvents(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = io.WriteString(w, `{"hits":{"hits":[{"_source":{"id":12}},{"_source":{"id":4}}]}}`)
	})

	ids, err := client.SearchEvents(context.Background(), "samba", 10)
	require.NoError(t, err)

	assert.Equal(t, []int64{12, 4}, ids)
	assert.Equal(t, "/events/_search", gotPath)
	assert.EqualValues(t, 10, gotBody["size"])
}

func TestSearchEventsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"bad query"}`)
	})

	_, err := client.SearchEvents(context.Background(), "samba", 10)
	assert.Error(t, err)
}

func TestIndexAndDeleteEvent(t *testing.T) {
	var requests []string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
		}
		_, _ = io.WriteString(w, `{}`)
	})

	err := client.IndexEvent(context.Background(), &models.Event{ID: 9, Name: "Carnaval", Active: true})
	require.NoError(t, err)

	// deleting a missing document is not an error
	err = client.DeleteEvent(context.Background(), 9)
	require.NoError(t, err)

	require.Len(t, requests, 2)
	assert.Equal(t, "PUT /events/_doc/9", requests[0])
	assert.Equal(t, "DELETE /events/_doc/9", requests[1])
}

func TestBuildSearchQueryFiltersEventsOnSale(t *testing.T) {
	raw, err := json.Marshal(buildSearchQuery("rock", 5))
	require.NoError(t, err)

	body := string(raw)
	assert.True(t, strings.Contains(body, `{"term":{"active":true}}`))
	assert.True(t, strings.Contains(body, `{"term":{"approved":true}}`))
	assert.True(t, strings.Contains(body, `"query":"rock"`))
}
