// Package types defines shared domain types used across the figure tracker.
package types

import "time"

// FigureType classifies a tracked public figure
type FigureType string

const (
	// FigureTypePolitician is a sitting member of the assembly
	FigureTypePolitician FigureType = "politician"
	// FigureTypeCandidate is a registered election candidate
	FigureTypeCandidate FigureType = "candidate"
	// FigureTypeOfficial is a non-elected public official
	FigureTypeOfficial FigureType = "official"
)

// StatementType classifies the origin of a public statement
type StatementType string

const (
	StatementSpeech          StatementType = "speech"
	StatementInterview       StatementType = "interview"
	StatementPressRelease    StatementType = "press_release"
	StatementDebate          StatementType = "debate"
	StatementAssemblySpeech  StatementType = "assembly_speech"
	StatementCommitteeSpeech StatementType = "committee_speech"
	StatementMediaComment    StatementType = "media_comment"
	StatementSocialMedia     StatementType = "social_media"
	StatementOther           StatementType = "other"
)

// StatementTypeFromCode maps an upstream type code to a StatementType.
// Unknown codes degrade to StatementOther.
func StatementTypeFromCode(code string) StatementType {
	switch code {
	case "SPEECH":
		return StatementSpeech
	case "INTERVIEW":
		return StatementInterview
	case "PRESS":
		return StatementPressRelease
	case "DEBATE":
		return StatementDebate
	case "ASSEMBLY":
		return StatementAssemblySpeech
	case "COMMITTEE":
		return StatementCommitteeSpeech
	case "MEDIA":
		return StatementMediaComment
	case "SNS":
		return StatementSocialMedia
	default:
		return StatementOther
	}
}

// FigureRecord is the normalized output of mapping one raw upstream figure
// record. It has no identity of its own; it is consumed by a single upsert
// and discarded.
type FigureRecord struct {
	FigureID     string     `json:"figureId"` // stable external id assigned by the upstream API
	Name         string     `json:"name"`
	EnglishName  string     `json:"englishName"`
	Birth        *time.Time `json:"birth,omitempty"`
	Party        string     `json:"party"`
	Constituency string     `json:"constituency"`
	FigureType   FigureType `json:"figureType"`
	Education    []string   `json:"education"`
	Careers      []string   `json:"careers"`
	Email        string     `json:"email"`
	Homepage     string     `json:"homepage"`
	ProfileURL   string     `json:"profileUrl"`
	UpdateSource string     `json:"updateSource"`
}

// StatementRecord is the normalized output of mapping one raw upstream
// statement record.
type StatementRecord struct {
	FigureName    string        `json:"figureName"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	StatementDate *time.Time    `json:"statementDate,omitempty"`
	Source        string        `json:"source"`
	OriginalURL   string        `json:"originalUrl"` // dedup key
	Type          StatementType `json:"type"`
}

// BillRecord is the normalized output of mapping one raw upstream bill record.
type BillRecord struct {
	BillID       string     `json:"billId"` // stable external id assigned by the upstream API
	BillNo       string     `json:"billNo"`
	Title        string     `json:"title"`
	ProposerName string     `json:"proposerName"`
	ProposeDate  *time.Time `json:"proposeDate,omitempty"`
	Summary      string     `json:"summary"`
	Status       string     `json:"status"`
	BillURL      string     `json:"billUrl"`
}

// BatchResult aggregates the outcome of a batch sync operation.
// One key's failure never aborts the batch; it is tallied here instead.
type BatchResult struct {
	SuccessCount int      `json:"successCount"`
	FailCount    int      `json:"failCount"`
	FailedKeys   []string `json:"failedKeys,omitempty"`
}

// Total returns the number of keys the batch attempted.
func (r *BatchResult) Total() int {
	return r.SuccessCount + r.FailCount
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
