package adapter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/figure-tracker/internal/errors"
	"github.com/figure-tracker/internal/logging"
	"github.com/figure-tracker/internal/types"
)

const updateSourceAssembly = "assembly-open-api"

const (
	birthDateLayout = "2006-01-02"
	regDateLayout   = "2006-01-02 15:04:05"
)

// assemblyFigureRow mirrors one row of the member roster service
type assemblyFigureRow struct {
	MemberCode   string `json:"MONA_CD"`
	Name         string `json:"HG_NM"`
	EnglishName  string `json:"ENG_NM"`
	BirthDate    string `json:"BTH_DATE"`
	Party        string `json:"POLY_NM"`
	Constituency string `json:"ORIG_NM"`
	Committee    string `json:"CMIT_NM"`
	CommitteeJob string `json:"JOB_RES_NM"`
	ElectedTerms string `json:"UNITS"`
	Education    string `json:"EDU"`
	CareerTitle  string `json:"MEM_TITLE"`
	Email        string `json:"E_MAIL"`
	Homepage     string `json:"HOMEPAGE"`
	ImageURL     string `json:"IMAGE_URL"`
}

// assemblyBillRow mirrors one row of the proposed-bill service
type assemblyBillRow struct {
	BillID      string `json:"BILL_ID"`
	BillNo      string `json:"BILL_NO"`
	BillName    string `json:"BILL_NAME"`
	Proposer    string `json:"PROPOSER"`
	ProposeDate string `json:"PROPOSE_DT"`
	Summary     string `json:"SUMMARY"`
	ProcResult  string `json:"PROC_RESULT"`
	LinkURL     string `json:"LINK_URL"`
}

// assemblyStatementRow mirrors one row of the broadcast news feed
type assemblyStatementRow struct {
	Title   string `json:"COMP_MAIN_TITLE"`
	Content string `json:"COMP_CONTENT"`
	RegDate string `json:"REG_DATE"`
	LinkURL string `json:"LINK_URL"`
}

// FigureAPIMapper converts raw upstream rows into sync records.
// Mapping is best-effort: a row without its natural key is rejected, but a
// malformed optional field only drops that field, logged at debug.
type FigureAPIMapper struct {
	logger *logging.Logger
}

// NewFigureAPIMapper creates a new mapper
func NewFigureAPIMapper() *FigureAPIMapper {
	return &FigureAPIMapper{
		logger: logging.GetLogger().WithField("component", "figure_mapper"),
	}
}

// MapFigure maps one roster row to a figure sync record
func (m *FigureAPIMapper) MapFigure(row json.RawMessage) (*types.FigureRecord, error) {
	var raw assemblyFigureRow
	if err := json.Unmarshal(row, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse figure row: %w", err)
	}

	if strings.TrimSpace(raw.MemberCode) == "" {
		return nil, errors.NewValidationError("memberCode", "missing in upstream row")
	}

	rec := &types.FigureRecord{
		FigureID:     strings.TrimSpace(raw.MemberCode),
		Name:         strings.TrimSpace(raw.Name),
		EnglishName:  strings.TrimSpace(raw.EnglishName),
		Party:        strings.TrimSpace(raw.Party),
		Constituency: strings.TrimSpace(raw.Constituency),
		FigureType:   types.FigureTypePolitician,
		Education:    splitLines(raw.Education),
		Careers:      m.buildCareers(&raw),
		Email:        strings.TrimSpace(raw.Email),
		Homepage:     strings.TrimSpace(raw.Homepage),
		ProfileURL:   strings.TrimSpace(raw.ImageURL),
		UpdateSource: updateSourceAssembly,
	}

	if raw.BirthDate != "" {
		birth, err := time.Parse(birthDateLayout, strings.TrimSpace(raw.BirthDate))
		if err != nil {
			m.logger.WithField("figureId", rec.FigureID).WithField("value", raw.BirthDate).
				Debug("Dropping malformed birth date")
		} else {
			rec.Birth = &birth
		}
	}

	return rec, nil
}

// buildCareers assembles career lines from the free-text career field plus
// the structured term and committee columns
func (m *FigureAPIMapper) buildCareers(raw *assemblyFigureRow) []string {
	careers := splitLines(raw.CareerTitle)

	if terms := strings.TrimSpace(raw.ElectedTerms); terms != "" {
		careers = append(careers, terms+" 국회의원")
	}
	if committee := strings.TrimSpace(raw.Committee); committee != "" {
		job := strings.TrimSpace(raw.CommitteeJob)
		if job == "" {
			job = "위원"
		}
		careers = append(careers, committee+" "+job)
	}
	return careers
}

// MapBill maps one proposed-bill row to a bill sync record
func (m *FigureAPIMapper) MapBill(row json.RawMessage, proposerName string) (*types.BillRecord, error) {
	var raw assemblyBillRow
	if err := json.Unmarshal(row, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse bill row: %w", err)
	}

	if strings.TrimSpace(raw.BillID) == "" {
		return nil, errors.NewValidationError("billId", "missing in upstream row")
	}

	proposer := strings.TrimSpace(raw.Proposer)
	if proposer == "" {
		proposer = proposerName
	}

	rec := &types.BillRecord{
		BillID:       strings.TrimSpace(raw.BillID),
		BillNo:       strings.TrimSpace(raw.BillNo),
		Title:        strings.TrimSpace(raw.BillName),
		ProposerName: proposer,
		Summary:      strings.TrimSpace(raw.Summary),
		Status:       strings.TrimSpace(raw.ProcResult),
		BillURL:      strings.TrimSpace(raw.LinkURL),
	}

	if raw.ProposeDate != "" {
		proposed, err := time.Parse(birthDateLayout, strings.TrimSpace(raw.ProposeDate))
		if err != nil {
			m.logger.WithField("billId", rec.BillID).WithField("value", raw.ProposeDate).
				Debug("Dropping malformed propose date")
		} else {
			rec.ProposeDate = &proposed
		}
	}

	return rec, nil
}

// MapStatement maps one news row to a statement sync record.
// The link URL is the dedup key downstream, so rows without one are rejected.
func (m *FigureAPIMapper) MapStatement(row json.RawMessage, figureName string) (*types.StatementRecord, error) {
	var raw assemblyStatementRow
	if err := json.Unmarshal(row, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse statement row: %w", err)
	}

	if strings.TrimSpace(raw.LinkURL) == "" {
		return nil, errors.NewValidationError("originalUrl", "missing in upstream row")
	}
	if strings.TrimSpace(raw.Title) == "" {
		return nil, errors.NewValidationError("title", "missing in upstream row")
	}

	rec := &types.StatementRecord{
		FigureName:  figureName,
		Title:       strings.TrimSpace(raw.Title),
		Content:     strings.TrimSpace(raw.Content),
		Source:      "국회방송국",
		OriginalURL: strings.TrimSpace(raw.LinkURL),
		Type:        classifyStatementType(raw.Title, raw.Content),
	}

	if raw.RegDate != "" {
		date, parseErr := parseStatementDate(strings.TrimSpace(raw.RegDate))
		if parseErr != nil {
			m.logger.WithField("url", rec.OriginalURL).WithField("value", raw.RegDate).
				Debug("Dropping malformed statement date")
		} else {
			rec.StatementDate = &date
		}
	}

	return rec, nil
}

// splitLines splits a free-text multi-line field into trimmed entries
func splitLines(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseStatementDate(value string) (time.Time, error) {
	if t, err := time.Parse(regDateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(birthDateLayout, value)
}

// statementTypeKeywords maps statement types to the keywords that signal
// them in title or content
var statementTypeKeywords = []struct {
	stmtType types.StatementType
	keywords []string
}{
	{types.StatementInterview, []string{"인터뷰", "대담", "면담"}},
	{types.StatementSpeech, []string{"연설", "강연", "발표", "축사"}},
	{types.StatementAssemblySpeech, []string{"본회의", "국정감사", "국정질문"}},
	{types.StatementCommitteeSpeech, []string{"상임위", "특별위", "소위원회", "위원회"}},
	{types.StatementPressRelease, []string{"보도자료", "기자회견", "발표문", "성명서"}},
	{types.StatementDebate, []string{"토론", "논쟁", "세미나"}},
	{types.StatementSocialMedia, []string{"트위터", "페이스북", "인스타그램", "블로그"}},
}

// classifyStatementType picks the statement type from keyword hits in the
// title first, then the content
func classifyStatementType(title, content string) types.StatementType {
	for _, candidate := range statementTypeKeywords {
		for _, keyword := range candidate.keywords {
			if strings.Contains(title, keyword) {
				return candidate.stmtType
			}
		}
	}
	for _, candidate := range statementTypeKeywords {
		for _, keyword := range candidate.keywords {
			if strings.Contains(content, keyword) {
				return candidate.stmtType
			}
		}
	}
	return types.StatementMediaComment
}
