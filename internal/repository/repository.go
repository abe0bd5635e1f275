package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/leaseguard/leaseguard-api/internal/models"
)

type Repository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	SaveResult(ctx context.Context, id string, result *models.AnalysisResult, analyzedAt time.Time) error
	GetResult(ctx context.Context, id string) (*models.AnalysisResult, *time.Time, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, filename, file_size, content_type, s3_key, extracted_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.Filename,
		doc.FileSize,
		doc.ContentType,
		doc.S3Key,
		doc.ExtractedText,
		doc.CreatedAt,
		doc.UpdatedAt,
	)

	return err
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document

	query := `
		SELECT id, filename, file_size, content_type, s3_key, extracted_text,
		       created_at, updated_at, analyzed_at
		FROM documents
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.Filename,
		&doc.FileSize,
		&doc.ContentType,
		&doc.S3Key,
		&doc.ExtractedText,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.AnalyzedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

func (r *repository) SaveResult(ctx context.Context, id string, result *models.AnalysisResult, analyzedAt time.Time) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO analyses (document_id, result, analyzed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id) DO UPDATE SET result = $2, analyzed_at = $3
	`
	if _, err := tx.ExecContext(ctx, query, id, string(resultJSON), analyzedAt); err != nil {
		return err
	}

	update := `UPDATE documents SET analyzed_at = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, id, analyzedAt, time.Now()); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) GetResult(ctx context.Context, id string) (*models.AnalysisResult, *time.Time, error) {
	var resultJSON string
	var analyzedAt time.Time

	query := `SELECT result, analyzed_at FROM analyses WHERE document_id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(&resultJSON, &analyzedAt)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal stored result: %w", err)
	}

	return &result, &analyzedAt, nil
}
