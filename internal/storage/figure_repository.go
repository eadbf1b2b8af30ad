package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/figure-tracker/internal/errors"
	"github.com/figure-tracker/internal/models"
	"github.com/figure-tracker/internal/types"
	"github.com/jackc/pgx/v5"
)

// figureColumns is the column list shared by all figure queries
const figureColumns = `
	id, figure_id, name, english_name, birth, party, constituency,
	figure_type, education, careers, email, homepage, profile_url,
	view_count, update_source, created_at, updated_at
`

// FigureRepository handles figure persistence. It owns the upsert path:
// find-or-create-or-update in one transaction, serialized per figure id.
type FigureRepository struct {
	db    *PostgresDB
	locks *KeyLock
}

// NewFigureRepository creates a new figure repository
func NewFigureRepository(db *PostgresDB) *FigureRepository {
	return &FigureRepository{
		db:    db,
		locks: NewKeyLock(),
	}
}

// Upsert applies a sync record to the figure identified by its external id.
// The whole read-modify-write runs in a single transaction; a fault mid-update
// rolls back to the prior persisted state. Upserts for the same figure id are
// serialized by a per-key lock on top of SELECT ... FOR UPDATE; upserts for
// different ids proceed in parallel.
func (r *FigureRepository) Upsert(ctx context.Context, rec *types.FigureRecord) (*models.Figure, error) {
	if rec == nil || strings.TrimSpace(rec.FigureID) == "" {
		return nil, errors.NewValidationError("figureId", "must not be blank")
	}

	r.locks.Lock(rec.FigureID)
	defer r.locks.Unlock(rec.FigureID)

	tx, err := r.db.Pool().BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.NewStoreUnavailableError("begin upsert", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	existing, err := r.getForUpdate(ctx, tx, rec.FigureID)
	if err != nil {
		return nil, err
	}

	var figure *models.Figure
	if existing == nil {
		figure = models.NewFigureFromRecord(rec)
		if err := r.insert(ctx, tx, figure); err != nil {
			return nil, err
		}
	} else {
		existing.ApplyRecord(rec)
		figure = existing
		if err := r.update(ctx, tx, figure); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.NewStoreUnavailableError("commit upsert", err)
	}
	return figure, nil
}

// getForUpdate locks and loads the row for a figure id inside tx.
// Returns nil without error when the figure does not exist yet.
func (r *FigureRepository) getForUpdate(ctx context.Context, tx pgx.Tx, figureID string) (*models.Figure, error) {
	query := `SELECT ` + figureColumns + ` FROM figures WHERE figure_id = $1 FOR UPDATE`

	figure, err := scanFigure(tx.QueryRow(ctx, query, figureID))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewStoreUnavailableError("lock figure row", err)
	}
	return figure, nil
}

func (r *FigureRepository) insert(ctx context.Context, tx pgx.Tx, f *models.Figure) error {
	query := `
		INSERT INTO figures (
			figure_id, name, english_name, birth, party, constituency,
			figure_type, education, careers, email, homepage, profile_url,
			view_count, update_source, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		f.FigureID,
		f.Name,
		f.EnglishName,
		f.Birth,
		f.Party,
		f.Constituency,
		f.FigureType,
		f.Education,
		f.Careers,
		f.Email,
		f.Homepage,
		f.ProfileURL,
		f.ViewCount,
		f.UpdateSource,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return errors.NewStoreUnavailableError("insert figure", err)
	}
	return nil
}

func (r *FigureRepository) update(ctx context.Context, tx pgx.Tx, f *models.Figure) error {
	query := `
		UPDATE figures
		SET name = $2, english_name = $3, birth = $4, party = $5,
			constituency = $6, figure_type = $7, education = $8, careers = $9,
			email = $10, homepage = $11, profile_url = $12,
			update_source = $13, updated_at = NOW()
		WHERE figure_id = $1
		RETURNING updated_at
	`

	err := tx.QueryRow(ctx, query,
		f.FigureID,
		f.Name,
		f.EnglishName,
		f.Birth,
		f.Party,
		f.Constituency,
		f.FigureType,
		f.Education,
		f.Careers,
		f.Email,
		f.Homepage,
		f.ProfileURL,
		f.UpdateSource,
	).Scan(&f.UpdatedAt)
	if err != nil {
		return errors.NewStoreUnavailableError("update figure", err)
	}
	return nil
}

// GetByFigureID retrieves a figure by its external id.
// Returns nil without error when not found.
func (r *FigureRepository) GetByFigureID(ctx context.Context, figureID string) (*models.Figure, error) {
	if strings.TrimSpace(figureID) == "" {
		return nil, errors.NewValidationError("figureId", "must not be blank")
	}

	query := `SELECT ` + figureColumns + ` FROM figures WHERE figure_id = $1`
	figure, err := scanFigure(r.db.Pool().QueryRow(ctx, query, figureID))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewStoreUnavailableError("get figure", err)
	}
	return figure, nil
}

// GetByName retrieves a figure by display name.
// Returns nil without error when not found.
func (r *FigureRepository) GetByName(ctx context.Context, name string) (*models.Figure, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewValidationError("name", "must not be blank")
	}

	query := `SELECT ` + figureColumns + ` FROM figures WHERE name = $1 ORDER BY id LIMIT 1`
	figure, err := scanFigure(r.db.Pool().QueryRow(ctx, query, name))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewStoreUnavailableError("get figure by name", err)
	}
	return figure, nil
}

// ListByParty retrieves all figures of one party ordered by name.
func (r *FigureRepository) ListByParty(ctx context.Context, party string) ([]*models.Figure, error) {
	if strings.TrimSpace(party) == "" {
		return nil, errors.NewValidationError("party", "must not be blank")
	}

	query := `SELECT ` + figureColumns + ` FROM figures WHERE party = $1 ORDER BY name`
	return r.queryFigures(ctx, query, party)
}

// ListPopular retrieves the most viewed figures.
func (r *FigureRepository) ListPopular(ctx context.Context, limit int) ([]*models.Figure, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + figureColumns + ` FROM figures ORDER BY view_count DESC, name LIMIT $1`
	return r.queryFigures(ctx, query, limit)
}

// Search retrieves figures whose name or constituency matches the keyword.
func (r *FigureRepository) Search(ctx context.Context, keyword string) ([]*models.Figure, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, errors.NewValidationError("keyword", "must not be blank")
	}

	pattern := "%" + keyword + "%"
	query := `SELECT ` + figureColumns + `
		FROM figures
		WHERE name ILIKE $1 OR constituency ILIKE $1
		ORDER BY view_count DESC, name`
	return r.queryFigures(ctx, query, pattern)
}

// ListPage retrieves one fixed-size page of figures ordered by id.
// An empty or short page signals end-of-data to paged sync callers.
func (r *FigureRepository) ListPage(ctx context.Context, limit, offset int) ([]*models.Figure, error) {
	if limit <= 0 {
		return nil, errors.NewValidationError("limit", "must be positive")
	}

	query := `SELECT ` + figureColumns + ` FROM figures ORDER BY id LIMIT $1 OFFSET $2`
	return r.queryFigures(ctx, query, limit, offset)
}

// IncrementViewCount bumps the view counter for a figure.
// Missing figures are ignored; the counter is a soft popularity signal.
func (r *FigureRepository) IncrementViewCount(ctx context.Context, figureID string) error {
	if strings.TrimSpace(figureID) == "" {
		return errors.NewValidationError("figureId", "must not be blank")
	}

	query := `UPDATE figures SET view_count = view_count + 1 WHERE figure_id = $1`
	if _, err := r.db.Pool().Exec(ctx, query, figureID); err != nil {
		return errors.NewStoreUnavailableError("increment view count", err)
	}
	return nil
}

// Count returns the number of tracked figures.
func (r *FigureRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM figures`).Scan(&count); err != nil {
		return 0, errors.NewStoreUnavailableError("count figures", err)
	}
	return count, nil
}

func (r *FigureRepository) queryFigures(ctx context.Context, query string, args ...any) ([]*models.Figure, error) {
	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("list figures", err)
	}
	defer rows.Close()

	var figures []*models.Figure
	for rows.Next() {
		figure, err := scanFigure(rows)
		if err != nil {
			return nil, errors.NewStoreUnavailableError("scan figure", err)
		}
		figures = append(figures, figure)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError("iterate figures", err)
	}
	return figures, nil
}

// scanFigure scans one figure row from a pgx row
func scanFigure(row pgx.Row) (*models.Figure, error) {
	var f models.Figure
	err := row.Scan(
		&f.ID,
		&f.FigureID,
		&f.Name,
		&f.EnglishName,
		&f.Birth,
		&f.Party,
		&f.Constituency,
		&f.FigureType,
		&f.Education,
		&f.Careers,
		&f.Email,
		&f.Homepage,
		&f.ProfileURL,
		&f.ViewCount,
		&f.UpdateSource,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan figure: %w", err)
	}
	return &f, nil
}
