// Package documents provides the document store facade: embed, upsert, list, delete.
package documents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hyperjump/chikai/internal/config"
	"github.com/hyperjump/chikai/internal/embedding"
	"github.com/hyperjump/chikai/internal/models"
	"github.com/hyperjump/chikai/internal/vector"
	"go.uber.org/zap"
)

// payloadTextKey is the payload field carrying the original document text.
// Metadata keys are stored alongside it; a metadata key named "text" would be
// overwritten by the document text.
const payloadTextKey = "text"

// Service stores and lists documents in the vector database. Adding a document
// embeds its text and upserts the vector with the text and metadata as payload.
type Service struct {
	store    vector.Store
	embedder embedding.Embedder
	config   *config.DocumentsConfig
	logger   *zap.Logger // optional; when set, logs debug events
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a document service with the given dependencies.
func NewService(store vector.Store, embedder embedding.Embedder, cfg *config.DocumentsConfig, opts ...Option) *Service {
	s := &Service{store: store, embedder: embedder, config: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add embeds the input text and upserts it into the collection. A UUID is
// generated when the input carries no ID. Returns the assigned ID.
func (s *Service) Add(ctx context.Context, in *models.DocumentInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	collection := s.collectionOrDefault(in.Collection)

	vec, err := s.embedder.Embed(ctx, in.Text)
	if err != nil {
		return "", fmt.Errorf("embed document: %w", err)
	}

	id := in.ID
	if id == "" {
		id = uuid.New().String()
	}

	payload := make(map[string]interface{}, len(in.Metadata)+1)
	for k, v := range in.Metadata {
		payload[k] = v
	}
	payload[payloadTextKey] = in.Text

	if err := s.store.Upsert(ctx, collection, []vector.Point{{ID: id, Vector: vec, Payload: payload}}); err != nil {
		return "", fmt.Errorf("upsert document: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("document added",
			zap.String("id", id),
			zap.String("collection", collection))
	}
	return id, nil
}

// List returns one page of documents from the collection. offset is the
// continuation token from a previous page (empty for the first). limit is
// clamped to the configured maximum; non-positive limits get the maximum.
func (s *Service) List(ctx context.Context, collection, offset string, limit int) (*models.DocumentPage, error) {
	collection = s.collectionOrDefault(collection)
	if limit <= 0 || limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	page, err := s.store.Scroll(ctx, collection, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]*models.Document, len(page.Points))
	for i, p := range page.Points {
		docs[i] = documentFromPayload(p.ID, p.Payload)
	}
	return &models.DocumentPage{
		Documents:  docs,
		Total:      len(docs),
		NextOffset: page.NextOffset,
	}, nil
}

// Delete removes the document by ID. A second delete of the same ID reports
// vector.ErrNotFound.
func (s *Service) Delete(ctx context.Context, collection, id string) error {
	collection = s.collectionOrDefault(collection)
	if err := s.store.DeletePoint(ctx, collection, id); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Debug("document deleted",
			zap.String("id", id),
			zap.String("collection", collection))
	}
	return nil
}

func (s *Service) collectionOrDefault(name string) string {
	if name == "" {
		return s.config.DefaultCollection
	}
	return name
}

// documentFromPayload splits the stored payload into text and metadata.
func documentFromPayload(id string, payload map[string]interface{}) *models.Document {
	doc := &models.Document{ID: id, Metadata: make(map[string]interface{})}
	for k, v := range payload {
		if k == payloadTextKey {
			if text, ok := v.(string); ok {
				doc.Text = text
			}
			continue
		}
		doc.Metadata[k] = v
	}
	return doc
}
