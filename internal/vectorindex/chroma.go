package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultChromaTenant   = "default_tenant"
	defaultChromaDatabase = "default_database"
	defaultChromaTimeout  = 10 * time.Second
	maxErrorBody          = 4 << 10
)

// ChromaConfig locates a Chroma collection.
type ChromaConfig struct {
	URL        string        `mapstructure:"url"`
	Tenant     string        `mapstructure:"tenant"`
	Database   string        `mapstructure:"database"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ChromaStore talks to the Chroma v2 REST API. The collection is created on
// first use when it does not exist.
type ChromaStore struct {
	httpClient *http.Client
	baseURL    string
	tenant     string
	database   string
	collection string

	mu           sync.Mutex
	collectionID string
}

var _ Store = (*ChromaStore)(nil)

// NewChromaStore validates cfg. httpClient may be nil.
func NewChromaStore(cfg ChromaConfig, httpClient *http.Client) (*ChromaStore, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("chroma url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parse chroma url: %w", err)
	}
	collection := strings.TrimSpace(cfg.Collection)
	if collection == "" {
		return nil, errors.New("chroma collection is required")
	}

	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultChromaTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &ChromaStore{
		httpClient: httpClient,
		baseURL:    base,
		tenant:     valueOr(cfg.Tenant, defaultChromaTenant),
		database:   valueOr(cfg.Database, defaultChromaDatabase),
		collection: collection,
	}, nil
}

func (s *ChromaStore) SupportsFilter() bool { return true }

type chromaUpsertRequest struct {
	RecordIDs  []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas"`
}

type chromaQueryRequest struct {
	QueryEmbeddings [][]float32    `json:"query_embeddings"`
	NResults        int            `json:"n_results"`
	Where           map[string]any `json:"where,omitempty"`
	Include         []string       `json:"include"`
}

type chromaQueryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

func (s *ChromaStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	id, err := s.collectionIDFor(ctx)
	if err != nil {
		return err
	}

	body := chromaUpsertRequest{
		RecordIDs:  make([]string, 0, len(records)),
		Embeddings: make([][]float32, 0, len(records)),
		Metadatas:  make([]map[string]any, 0, len(records)),
	}
	for _, r := range records {
		body.RecordIDs = append(body.RecordIDs, r.ID)
		body.Embeddings = append(body.Embeddings, r.Vector)
		body.Metadatas = append(body.Metadatas, r.Metadata)
	}

	return s.post(ctx, s.collectionPath(id, "upsert"), body, nil)
}

func (s *ChromaStore) Query(ctx context.Context, q Query) ([]Match, error) {
	if q.TopK <= 0 {
		return []Match{}, nil
	}

	id, err := s.collectionIDFor(ctx)
	if err != nil {
		return nil, err
	}

	body := chromaQueryRequest{
		QueryEmbeddings: [][]float32{q.Vector},
		NResults:        q.TopK,
		Where:           q.Filter,
		Include:         []string{"distances"},
	}
	if q.IncludeMetadata {
		body.Include = []string{"metadatas", "distances"}
	}

	var out chromaQueryResponse
	if err := s.post(ctx, s.collectionPath(id, "query"), body, &out); err != nil {
		return nil, err
	}
	if len(out.IDs) == 0 {
		return []Match{}, nil
	}

	matches := make([]Match, 0, len(out.IDs[0]))
	for i, recordID := range out.IDs[0] {
		m := Match{ID: recordID}
		if len(out.Distances) > 0 && i < len(out.Distances[0]) {
			m.Score = 1 - out.Distances[0][i]
		}
		if len(out.Metadatas) > 0 && i < len(out.Metadatas[0]) {
			m.Metadata = out.Metadatas[0][i]
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (s *ChromaStore) collectionIDFor(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collectionID != "" {
		return s.collectionID, nil
	}

	var info struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/api/v2/tenants/%s/databases/%s/collections", url.PathEscape(s.tenant), url.PathEscape(s.database))
	request := map[string]any{"name": s.collection, "get_or_create": true}
	if err := s.post(ctx, path, request, &info); err != nil {
		return "", fmt.Errorf("get or create collection %s: %w", s.collection, err)
	}
	if info.ID == "" {
		return "", fmt.Errorf("chroma returned empty id for collection %s", s.collection)
	}

	s.collectionID = info.ID
	return info.ID, nil
}

func (s *ChromaStore) collectionPath(id, op string) string {
	return fmt.Sprintf("/api/v2/tenants/%s/databases/%s/collections/%s/%s",
		url.PathEscape(s.tenant), url.PathEscape(s.database), url.PathEscape(id), op)
}

func (s *ChromaStore) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode chroma request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build chroma request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chroma request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("chroma API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode chroma response: %w", err)
	}
	return nil
}

func valueOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
