package collab

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/collab-docs/backend/internal/model"
	"github.com/collab-docs/backend/internal/repository"
)

// defaultSaveDelay is how long a room's content may sit dirty before it is
// written back to the document store.
const defaultSaveDelay = 2 * time.Second

// Service wires the room registry to the external document store. Content
// is hydrated from the store when a room is first opened, written back with
// a debounce while editing, and flushed a final time when the room closes.
type Service struct {
	registry *Registry
	handler  *Handler
	repo     *repository.DocumentRepository

	saveDelay time.Duration

	mu      sync.Mutex
	pending map[string]string      // docID -> dirty content
	timers  map[string]*time.Timer // docID -> pending flush
}

// NewService creates a collaboration service backed by the given repository.
func NewService(repo *repository.DocumentRepository) *Service {
	s := &Service{
		repo:      repo,
		saveDelay: defaultSaveDelay,
		pending:   make(map[string]string),
		timers:    make(map[string]*time.Timer),
	}
	s.registry = NewRegistry(RegistryConfig{
		OnContentChange: s.queueSave,
		OnRoomClosed:    s.saveNow,
	})
	s.handler = NewHandler(s.registry, s)
	return s
}

// Handler returns the WebSocket handler.
func (s *Service) Handler() *Handler {
	return s.handler
}

// Registry returns the room registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// LoadContent fetches the persisted content for a document. A document with
// no persisted record opens empty.
func (s *Service) LoadContent(ctx context.Context, docID string) (string, error) {
	content, err := s.repo.GetContent(ctx, docID)
	if errors.Is(err, model.ErrDocumentNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return content, nil
}

// queueSave marks a document dirty and schedules a debounced write-back.
// Repeated updates within the delay window collapse into one write.
func (s *Service) queueSave(docID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[docID] = content
	if _, ok := s.timers[docID]; ok {
		return
	}
	s.timers[docID] = time.AfterFunc(s.saveDelay, func() {
		s.flush(docID)
	})
}

// flush writes a document's dirty content to the store.
func (s *Service) flush(docID string) {
	s.mu.Lock()
	content, dirty := s.pending[docID]
	delete(s.pending, docID)
	if t, ok := s.timers[docID]; ok {
		t.Stop()
		delete(s.timers, docID)
	}
	s.mu.Unlock()

	if !dirty {
		return
	}
	if err := s.repo.SaveContent(context.Background(), docID, content); err != nil {
		log.Printf("Failed to save document %s: %v", docID, err)
	}
}

// saveNow persists a room's final content immediately, superseding any
// pending debounced write.
func (s *Service) saveNow(docID, content string) {
	s.mu.Lock()
	s.pending[docID] = content
	s.mu.Unlock()
	s.flush(docID)
}

// Close flushes all dirty documents and tears down every room.
func (s *Service) Close() {
	s.registry.Close()

	s.mu.Lock()
	dirty := make([]string, 0, len(s.pending))
	for docID := range s.pending {
		dirty = append(dirty, docID)
	}
	s.mu.Unlock()

	for _, docID := range dirty {
		s.flush(docID)
	}
}
