package models

import (
	"time"

	"github.com/figure-tracker/internal/types"
)

// Statement represents one archived public statement.
// Statements are append-only; OriginalURL is the dedup key used to skip
// records that were already ingested.
type Statement struct {
	FigureID      string              `json:"figureId"`
	FigureName    string              `json:"figureName"`
	Title         string              `json:"title"`
	Content       string              `json:"content"`
	StatementDate time.Time           `json:"statementDate"`
	Source        string              `json:"source,omitempty"`
	OriginalURL   string              `json:"originalUrl"`
	Type          types.StatementType `json:"type"`
	IngestedAt    time.Time           `json:"ingestedAt"`
}

// FromStatementRecord builds a statement row for a figure from a sync record.
func FromStatementRecord(rec *types.StatementRecord, figureID string) *Statement {
	s := &Statement{
		FigureID:    figureID,
		FigureName:  rec.FigureName,
		Title:       rec.Title,
		Content:     rec.Content,
		Source:      rec.Source,
		OriginalURL: rec.OriginalURL,
		Type:        rec.Type,
		IngestedAt:  time.Now().UTC(),
	}
	if rec.StatementDate != nil {
		s.StatementDate = *rec.StatementDate
	} else {
		// A zero time.Time falls outside the archive's Date range and
		// would misfile the row's partition. Best-effort rows keep the
		// ingestion date instead.
		s.StatementDate = s.IngestedAt
	}
	return s
}
