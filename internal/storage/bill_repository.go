package storage

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/figure-tracker/internal/errors"
	"github.com/figure-tracker/internal/models"
	"github.com/figure-tracker/internal/types"
	"github.com/jackc/pgx/v5"
)

const billColumns = `
	id, bill_id, bill_no, title, proposer_name, propose_date,
	summary, status, bill_url, created_at, updated_at
`

// BillRepository handles bill persistence
type BillRepository struct {
	db *PostgresDB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *PostgresDB) *BillRepository {
	return &BillRepository{db: db}
}

// Upsert inserts or refreshes a bill keyed by its external bill id.
// Bills carry no accumulated local state, so a plain ON CONFLICT
// update is enough; no row locking needed.
func (r *BillRepository) Upsert(ctx context.Context, rec *types.BillRecord) (*models.Bill, error) {
	if rec == nil || strings.TrimSpace(rec.BillID) == "" {
		return nil, errors.NewValidationError("billId", "must not be blank")
	}

	bill := models.NewBillFromRecord(rec)
	query := `
		INSERT INTO bills (
			bill_id, bill_no, title, proposer_name, propose_date,
			summary, status, bill_url, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (bill_id) DO UPDATE SET
			bill_no = EXCLUDED.bill_no,
			title = EXCLUDED.title,
			proposer_name = EXCLUDED.proposer_name,
			propose_date = EXCLUDED.propose_date,
			summary = EXCLUDED.summary,
			status = EXCLUDED.status,
			bill_url = EXCLUDED.bill_url,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool().QueryRow(ctx, query,
		bill.BillID,
		bill.BillNo,
		bill.Title,
		bill.ProposerName,
		bill.ProposeDate,
		bill.Summary,
		bill.Status,
		bill.BillURL,
	).Scan(&bill.ID, &bill.CreatedAt, &bill.UpdatedAt)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("upsert bill", err)
	}
	return bill, nil
}

// GetByBillID retrieves a bill by its external id.
// Returns nil without error when not found.
func (r *BillRepository) GetByBillID(ctx context.Context, billID string) (*models.Bill, error) {
	if strings.TrimSpace(billID) == "" {
		return nil, errors.NewValidationError("billId", "must not be blank")
	}

	query := `SELECT ` + billColumns + ` FROM bills WHERE bill_id = $1`
	bill, err := scanBill(r.db.Pool().QueryRow(ctx, query, billID))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewStoreUnavailableError("get bill", err)
	}
	return bill, nil
}

// ListByProposer retrieves bills proposed by the named figure, newest first.
func (r *BillRepository) ListByProposer(ctx context.Context, proposerName string) ([]*models.Bill, error) {
	if strings.TrimSpace(proposerName) == "" {
		return nil, errors.NewValidationError("proposerName", "must not be blank")
	}

	query := `SELECT ` + billColumns + ` FROM bills WHERE proposer_name = $1 ORDER BY propose_date DESC, id DESC`
	rows, err := r.db.Pool().Query(ctx, query, proposerName)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("list bills", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, errors.NewStoreUnavailableError("scan bill", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError("iterate bills", err)
	}
	return bills, nil
}

// CountByProposer returns the number of tracked bills proposed by the named figure.
func (r *BillRepository) CountByProposer(ctx context.Context, proposerName string) (int64, error) {
	if strings.TrimSpace(proposerName) == "" {
		return 0, errors.NewValidationError("proposerName", "must not be blank")
	}

	var count int64
	query := `SELECT COUNT(*) FROM bills WHERE proposer_name = $1`
	if err := r.db.Pool().QueryRow(ctx, query, proposerName).Scan(&count); err != nil {
		return 0, errors.NewStoreUnavailableError("count bills", err)
	}
	return count, nil
}

// Count returns the number of tracked bills.
func (r *BillRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM bills`).Scan(&count); err != nil {
		return 0, errors.NewStoreUnavailableError("count bills", err)
	}
	return count, nil
}

func scanBill(row pgx.Row) (*models.Bill, error) {
	var b models.Bill
	err := row.Scan(
		&b.ID,
		&b.BillID,
		&b.BillNo,
		&b.Title,
		&b.ProposerName,
		&b.ProposeDate,
		&b.Summary,
		&b.Status,
		&b.BillURL,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
