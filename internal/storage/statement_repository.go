package storage

import (
	"context"
	"strings"

	"github.com/figure-tracker/internal/errors"
	"github.com/figure-tracker/internal/models"
	"github.com/figure-tracker/internal/types"
)

// StatementRepository handles statement persistence in ClickHouse.
// The archive is append-only; ExistsByOriginalURL is the dedup gate
// callers consult before inserting.
type StatementRepository struct {
	db *ClickHouseDB
}

// NewStatementRepository creates a new statement repository
func NewStatementRepository(db *ClickHouseDB) *StatementRepository {
	return &StatementRepository{db: db}
}

// Insert inserts a single statement
func (r *StatementRepository) Insert(ctx context.Context, s *models.Statement) error {
	if strings.TrimSpace(s.OriginalURL) == "" {
		return errors.NewValidationError("originalUrl", "must not be blank")
	}

	query := `
		INSERT INTO statements (
			figure_id, figure_name, title, content, statement_date,
			source, original_url, type, ingested_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := r.db.Conn().Exec(ctx, query,
		s.FigureID,
		s.FigureName,
		s.Title,
		s.Content,
		s.StatementDate,
		s.Source,
		s.OriginalURL,
		string(s.Type),
		s.IngestedAt,
	)
	if err != nil {
		return errors.NewStoreUnavailableError("insert statement", err)
	}
	return nil
}

// BatchInsert inserts multiple statements in a batch
func (r *StatementRepository) BatchInsert(ctx context.Context, statements []*models.Statement) error {
	if len(statements) == 0 {
		return nil
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO statements (
			figure_id, figure_name, title, content, statement_date,
			source, original_url, type, ingested_at
		)
	`)
	if err != nil {
		return errors.NewStoreUnavailableError("prepare statement batch", err)
	}

	for _, s := range statements {
		if strings.TrimSpace(s.OriginalURL) == "" {
			return errors.NewValidationError("originalUrl", "must not be blank")
		}

		err := batch.Append(
			s.FigureID,
			s.FigureName,
			s.Title,
			s.Content,
			s.StatementDate,
			s.Source,
			s.OriginalURL,
			string(s.Type),
			s.IngestedAt,
		)
		if err != nil {
			return errors.NewStoreUnavailableError("append statement to batch", err)
		}
	}

	if err := batch.Send(); err != nil {
		return errors.NewStoreUnavailableError("send statement batch", err)
	}
	return nil
}

// ExistsByOriginalURL reports whether a statement with this source URL
// was already archived
func (r *StatementRepository) ExistsByOriginalURL(ctx context.Context, originalURL string) (bool, error) {
	if strings.TrimSpace(originalURL) == "" {
		return false, errors.NewValidationError("originalUrl", "must not be blank")
	}

	query := `SELECT count() FROM statements WHERE original_url = ?`

	var count uint64
	if err := r.db.Conn().QueryRow(ctx, query, originalURL).Scan(&count); err != nil {
		return false, errors.NewStoreUnavailableError("check statement exists", err)
	}
	return count > 0, nil
}

// ListByFigure retrieves archived statements for a figure, newest first
func (r *StatementRepository) ListByFigure(ctx context.Context, figureID string, limit int) ([]*models.Statement, error) {
	if strings.TrimSpace(figureID) == "" {
		return nil, errors.NewValidationError("figureId", "must not be blank")
	}
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT figure_id, figure_name, title, content, statement_date,
			source, original_url, type, ingested_at
		FROM statements
		WHERE figure_id = ?
		ORDER BY statement_date DESC, ingested_at DESC
		LIMIT ?
	`

	rows, err := r.db.Conn().Query(ctx, query, figureID, limit)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("list statements", err)
	}
	defer rows.Close()

	var statements []*models.Statement
	for rows.Next() {
		var s models.Statement
		var stmtType string
		err := rows.Scan(
			&s.FigureID,
			&s.FigureName,
			&s.Title,
			&s.Content,
			&s.StatementDate,
			&s.Source,
			&s.OriginalURL,
			&stmtType,
			&s.IngestedAt,
		)
		if err != nil {
			return nil, errors.NewStoreUnavailableError("scan statement", err)
		}
		s.Type = types.StatementType(stmtType)
		statements = append(statements, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError("iterate statements", err)
	}
	return statements, nil
}

// CountByFigure returns the number of archived statements for a figure
func (r *StatementRepository) CountByFigure(ctx context.Context, figureID string) (uint64, error) {
	var count uint64
	query := `SELECT count() FROM statements WHERE figure_id = ?`
	if err := r.db.Conn().QueryRow(ctx, query, figureID).Scan(&count); err != nil {
		return 0, errors.NewStoreUnavailableError("count statements", err)
	}
	return count, nil
}
