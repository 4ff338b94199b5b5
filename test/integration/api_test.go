// Package integration provides end-to-end tests over the full HTTP API.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/chikai/internal/collections"
	"github.com/hyperjump/chikai/internal/config"
	"github.com/hyperjump/chikai/internal/documents"
	"github.com/hyperjump/chikai/internal/embedding"
	"github.com/hyperjump/chikai/internal/models"
	"github.com/hyperjump/chikai/internal/search"
	"github.com/hyperjump/chikai/internal/server"
	"github.com/hyperjump/chikai/internal/vector"
	"go.uber.org/zap"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Embedding.Dimensions = 32

	store := vector.NewMemoryStore()
	embedder := embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	logger := zap.NewNop()

	cols := collections.NewManager(store, collections.WithLogger(logger))
	err := cols.EnsureDefault(context.Background(),
		cfg.Documents.DefaultCollection, cfg.Embedding.Dimensions, cfg.Documents.Distance)
	if err != nil {
		t.Fatal(err)
	}

	docs := documents.NewService(store, embedder, &cfg.Documents, documents.WithLogger(logger))
	engine := search.NewEngine(store, embedder, &cfg.Documents)
	srv := server.NewServer(docs, engine, cols, &cfg.Server, logger)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body interface{}, out interface{}) int {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func doDelete(t *testing.T, url string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestIntegration_DocumentLifecycle(t *testing.T) {
	ts := newAPIServer(t)

	var added struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	code := postJSON(t, ts.URL+"/documents", &models.DocumentInput{
		Text:     "Machine learning algorithms learn patterns from data.",
		Metadata: map[string]interface{}{"topic": "ml"},
	}, &added)
	if code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d", code)
	}
	if added.ID == "" {
		t.Fatal("add: expected generated id")
	}

	code = postJSON(t, ts.URL+"/documents", &models.DocumentInput{
		Text: "Cooking pasta requires boiling salted water.",
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("add second: expected 201, got %d", code)
	}

	var searchResp models.SearchResponse
	code = postJSON(t, ts.URL+"/search", &models.SearchQuery{
		Query: "machine learning data", Limit: 5,
	}, &searchResp)
	if code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", code)
	}
	if len(searchResp.Results) == 0 {
		t.Fatal("search: expected results")
	}
	if searchResp.Results[0].ID != added.ID {
		t.Errorf("search: expected top result %s, got %s", added.ID, searchResp.Results[0].ID)
	}
	if searchResp.Results[0].Metadata["topic"] != "ml" {
		t.Errorf("search: metadata not preserved: %v", searchResp.Results[0].Metadata)
	}

	var page models.DocumentPage
	code = getJSON(t, ts.URL+"/documents?limit=10", &page)
	if code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", code)
	}
	if len(page.Documents) != 2 {
		t.Errorf("list: expected 2 documents, got %d", len(page.Documents))
	}

	if code := doDelete(t, ts.URL+"/documents/"+added.ID); code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", code)
	}
	if code := doDelete(t, ts.URL+"/documents/"+added.ID); code != http.StatusNotFound {
		t.Errorf("delete again: expected 404, got %d", code)
	}

	code = getJSON(t, ts.URL+"/documents?limit=10", &page)
	if code != http.StatusOK {
		t.Fatalf("list after delete: expected 200, got %d", code)
	}
	if len(page.Documents) != 1 {
		t.Errorf("list after delete: expected 1 document, got %d", len(page.Documents))
	}
}

func TestIntegration_Pagination(t *testing.T) {
	ts := newAPIServer(t)

	for i := 0; i < 7; i++ {
		code := postJSON(t, ts.URL+"/documents", &models.DocumentInput{
			Text: fmt.Sprintf("Document number %d about indexing.", i),
		}, nil)
		if code != http.StatusCreated {
			t.Fatalf("add %d: expected 201, got %d", i, code)
		}
	}

	seen := make(map[string]bool)
	offset := ""
	pages := 0
	for {
		url := ts.URL + "/documents?limit=3"
		if offset != "" {
			url += "&offset=" + offset
		}
		var page models.DocumentPage
		if code := getJSON(t, url, &page); code != http.StatusOK {
			t.Fatalf("list: expected 200, got %d", code)
		}
		for _, d := range page.Documents {
			if seen[d.ID] {
				t.Errorf("document %s returned twice", d.ID)
			}
			seen[d.ID] = true
		}
		pages++
		if page.NextOffset == "" {
			break
		}
		offset = page.NextOffset
		if pages > 10 {
			t.Fatal("pagination did not terminate")
		}
	}
	if len(seen) != 7 {
		t.Errorf("expected 7 distinct documents across pages, got %d", len(seen))
	}
}

func TestIntegration_CollectionManagement(t *testing.T) {
	ts := newAPIServer(t)

	code := postJSON(t, ts.URL+"/collections", &models.CollectionCreate{
		Name: "notes", VectorSize: 32, Distance: "dot",
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", code)
	}
	if code := postJSON(t, ts.URL+"/collections", &models.CollectionCreate{Name: "notes"}, nil); code != http.StatusConflict {
		t.Errorf("create duplicate: expected 409, got %d", code)
	}

	var detail models.CollectionDetail
	if code := getJSON(t, ts.URL+"/collections/notes/info", &detail); code != http.StatusOK {
		t.Fatalf("info: expected 200, got %d", code)
	}
	if detail.Dimension != 32 || detail.Distance != "dot" {
		t.Errorf("info: unexpected detail %+v", detail)
	}

	// Documents can target the new collection explicitly.
	code = postJSON(t, ts.URL+"/documents", &models.DocumentInput{
		Text: "A note in its own collection.", Collection: "notes",
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("add to notes: expected 201, got %d", code)
	}
	var page models.DocumentPage
	if code := getJSON(t, ts.URL+"/documents?collection=notes&limit=10", &page); code != http.StatusOK {
		t.Fatalf("list notes: expected 200, got %d", code)
	}
	if len(page.Documents) != 1 {
		t.Errorf("list notes: expected 1 document, got %d", len(page.Documents))
	}

	if code := doDelete(t, ts.URL+"/collections/notes"); code != http.StatusOK {
		t.Errorf("delete collection: expected 200, got %d", code)
	}
	if code := getJSON(t, ts.URL+"/collections/notes/info", nil); code != http.StatusNotFound {
		t.Errorf("info after delete: expected 404, got %d", code)
	}
}

func TestIntegration_Health(t *testing.T) {
	ts := newAPIServer(t)

	var health struct {
		Status           string `json:"status"`
		CollectionsCount int    `json:"collections_count"`
	}
	if code := getJSON(t, ts.URL+"/health", &health); code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", code)
	}
	if health.Status != "healthy" {
		t.Errorf("expected healthy status, got %q", health.Status)
	}
	if health.CollectionsCount != 1 {
		t.Errorf("expected 1 collection, got %d", health.CollectionsCount)
	}
}
