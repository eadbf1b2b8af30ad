// Package models defines the persisted entity shapes.
package models

import (
	"time"

	"github.com/figure-tracker/internal/types"
)

// Figure represents a tracked public figure.
// The natural key is FigureID, assigned by the upstream assembly API.
// Figures are never deleted by the sync pipeline.
type Figure struct {
	ID           int64            `json:"id"`
	FigureID     string           `json:"figureId"`
	Name         string           `json:"name"`
	EnglishName  string           `json:"englishName,omitempty"`
	Birth        *time.Time       `json:"birth,omitempty"`
	Party        string           `json:"party,omitempty"`
	Constituency string           `json:"constituency,omitempty"`
	FigureType   types.FigureType `json:"figureType"`
	Education    []string         `json:"education,omitempty"`
	Careers      []string         `json:"careers,omitempty"`
	Email        string           `json:"email,omitempty"`
	Homepage     string           `json:"homepage,omitempty"`
	ProfileURL   string           `json:"profileUrl,omitempty"`
	ViewCount    int64            `json:"viewCount"`
	UpdateSource string           `json:"updateSource,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// ApplyRecord overlays the mapped fields of a sync record onto the figure.
// Fields absent from the record keep their prior values; mapped fields are
// replaced wholesale.
func (f *Figure) ApplyRecord(rec *types.FigureRecord) {
	f.FigureID = rec.FigureID
	if rec.Name != "" {
		f.Name = rec.Name
	}
	f.EnglishName = rec.EnglishName
	if rec.Birth != nil {
		f.Birth = rec.Birth
	}
	f.Party = rec.Party
	f.Constituency = rec.Constituency
	if rec.FigureType != "" {
		f.FigureType = rec.FigureType
	}
	if rec.Education != nil {
		f.Education = rec.Education
	}
	if rec.Careers != nil {
		f.Careers = rec.Careers
	}
	f.Email = rec.Email
	f.Homepage = rec.Homepage
	f.ProfileURL = rec.ProfileURL
	f.UpdateSource = rec.UpdateSource
}

// NewFigureFromRecord constructs a fresh figure from a sync record with
// zero-valued defaults for everything the record does not provide.
func NewFigureFromRecord(rec *types.FigureRecord) *Figure {
	f := &Figure{
		FigureID:   rec.FigureID,
		FigureType: types.FigureTypePolitician,
		ViewCount:  0,
	}
	f.ApplyRecord(rec)
	return f
}
