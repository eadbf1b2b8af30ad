package models

import (
	"time"

	"github.com/figure-tracker/internal/types"
)

// Bill represents a proposed bill linked to its proposer.
// The natural key is BillID, assigned by the upstream assembly API.
type Bill struct {
	ID           int64      `json:"id"`
	BillID       string     `json:"billId"`
	BillNo       string     `json:"billNo,omitempty"`
	Title        string     `json:"title"`
	ProposerName string     `json:"proposerName"`
	ProposeDate  *time.Time `json:"proposeDate,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	Status       string     `json:"status,omitempty"`
	BillURL      string     `json:"billUrl,omitempty"`
	ViewCount    int64      `json:"viewCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NewBillFromRecord constructs a bill from a sync record.
func NewBillFromRecord(rec *types.BillRecord) *Bill {
	return &Bill{
		BillID:       rec.BillID,
		BillNo:       rec.BillNo,
		Title:        rec.Title,
		ProposerName: rec.ProposerName,
		ProposeDate:  rec.ProposeDate,
		Summary:      rec.Summary,
		Status:       rec.Status,
		BillURL:      rec.BillURL,
	}
}
