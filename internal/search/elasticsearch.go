package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"ticketnow/internal/config"
	"ticketnow/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchClient maintains and queries the event search index
type ElasticsearchClient struct {
	client *elasticsearch.Client
	index  string
}

// document is the indexed projection of an event
type document struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	City        string               `json:"city"`
	State       string               `json:"state"`
	Category    models.EventCategory `json:"category"`
	EventDate   time.Time            `json:"event_date"`
	Active      bool                 `json:"active"`
	Approved    bool                 `json:"approved"`
}

func NewElasticsearchClient(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
		Transport:     &http.Transport{ResponseHeaderTimeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{client: es, index: cfg.Index}, nil
}

// EnsureIndex creates the index with its mapping if it does not exist
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{c.index}}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"analysis": map[string]interface{}{
				"analyzer": map[string]interface{}{
					"event_text": map[string]interface{}{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding"},
					},
				},
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":          map[string]interface{}{"type": "long"},
				"name":        map[string]interface{}{"type": "text", "analyzer": "event_text"},
				"description": map[string]interface{}{"type": "text", "analyzer": "event_text"},
				"city":        map[string]interface{}{"type": "text", "analyzer": "event_text"},
				"state":       map[string]interface{}{"type": "keyword"},
				"category":    map[string]interface{}{"type": "keyword"},
				"event_date":  map[string]interface{}{"type": "date"},
				"active":      map[string]interface{}{"type": "boolean"},
				"approved":    map[string]interface{}{"type": "boolean"},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createRes, err := esapi.IndicesCreateRequest{Index: c.index, Body: bytes.NewReader(body)}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.index)
	return nil
}

// IndexEvent stores or replaces the event document
func (c *ElasticsearchClient) IndexEvent(ctx context.Context, event *models.Event) error {
	body, err := json.Marshal(document{
		ID:          event.ID,
		Name:        event.Name,
		Description: event.Description,
		City:        event.City,
		State:       event.State,
		Category:    event.Category,
		EventDate:   event.EventDate,
		Active:      event.Active,
		Approved:    event.Approved,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	res, err := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: strconv.FormatInt(event.ID, 10),
		Body:       bytes.NewReader(body),
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}
	return nil
}

func (c *ElasticsearchClient) DeleteEvent(ctx context.Context, id int64) error {
	res, err := esapi.DeleteRequest{
		Index:      c.index,
		DocumentID: strconv.FormatInt(id, 10),
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete error: %s", res.String())
	}
	return nil
}

// SearchEvents returns the ids of events on sale matching text, best match first
func (c *ElasticsearchClient) SearchEvents(ctx context.Context, text string, limit int) ([]int64, error) {
	body, err := json.Marshal(buildSearchQuery(text, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]int64, len(response.Hits.Hits))
	for i, hit := range response.Hits.Hits {
		ids[i] = hit.Source.ID
	}
	return ids, nil
}

func buildSearchQuery(text string, limit int) map[string]interface{} {
	return map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":     text,
						"fields":    []string{"name^3", "city^2", "description"},
						"fuzziness": "AUTO",
					},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"active": true}},
					{"term": map[string]interface{}{"approved": true}},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"_score": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"event_date": map[string]interface{}{"order": "asc"}},
		},
	}
}
