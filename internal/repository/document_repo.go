package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/collab-docs/backend/internal/model"
)

// DocumentRepository provides data access for document content.
//
// The collaboration core treats this as the external persistence
// collaborator: content is read once when a room is first opened and written
// back periodically while editing is in flight.
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// GetContent retrieves the persisted content for a document.
func (r *DocumentRepository) GetContent(ctx context.Context, docID string) (string, error) {
	query := `SELECT content FROM documents WHERE id = ?`

	var content string
	err := r.db.QueryRowContext(ctx, query, docID).Scan(&content)
	if err == sql.ErrNoRows {
		return "", model.ErrDocumentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get document: %w", err)
	}

	return content, nil
}

// SaveContent upserts the content of a document, stamping updated_at.
func (r *DocumentRepository) SaveContent(ctx context.Context, docID, content string) error {
	query := `
		INSERT INTO documents (id, content, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, docID, content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	return nil
}

// GetDocument retrieves a full document record.
func (r *DocumentRepository) GetDocument(ctx context.Context, docID string) (*model.Document, error) {
	query := `SELECT id, content, updated_at FROM documents WHERE id = ?`

	doc := &model.Document{}
	err := r.db.QueryRowContext(ctx, query, docID).Scan(&doc.ID, &doc.Content, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, model.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// Delete removes a document record.
func (r *DocumentRepository) Delete(ctx context.Context, docID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, docID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrDocumentNotFound
	}

	return nil
}
