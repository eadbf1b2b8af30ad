package adapter

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/figure-tracker/internal/circuitbreaker"
	"github.com/figure-tracker/internal/config"
	"github.com/figure-tracker/internal/errors"
	"github.com/figure-tracker/internal/logging"
	"github.com/figure-tracker/internal/types"
	"golang.org/x/time/rate"
)

// Upstream API paths. The figure and bill services use the opaque service
// codes the national assembly portal assigns; statements come from the
// assembly broadcast news feed.
const (
	figureAPIPath    = "nwvrqwxyaytdsfvhu"
	billAPIPath      = "nzmimeepazxkubdpn"
	statementAPIPath = "news"
)

const (
	allFiguresPageSize = 100
	allFiguresMaxPages = 4
)

// AssemblyClient fetches figure, bill and statement data from the national
// assembly open API. All requests share one rate limiter so concurrent sync
// workers stay within the upstream quota.
type AssemblyClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
	mapper  *FigureAPIMapper
	logger  *logging.Logger
}

// NewAssemblyClient creates a new assembly API client
func NewAssemblyClient(cfg *config.AssemblyConfig) *AssemblyClient {
	return &AssemblyClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig("assembly-api")),
		mapper:  NewFigureAPIMapper(),
		logger:  logging.GetLogger().WithField("component", "assembly_client"),
	}
}

// FetchFigureByName fetches a single figure by display name.
// Returns an EMPTY_RESULT error when the upstream has no such figure.
func (c *AssemblyClient) FetchFigureByName(ctx context.Context, name string) (*types.FigureRecord, error) {
	if name == "" {
		return nil, errors.NewValidationError("name", "must not be blank")
	}

	rows, err := c.fetchRows(ctx, figureAPIPath, name, url.Values{"HG_NM": {name}})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.NewEmptyResultError(name)
	}

	return c.mapper.MapFigure(rows[0])
}

// FetchFiguresByParty fetches all figures belonging to one party
func (c *AssemblyClient) FetchFiguresByParty(ctx context.Context, party string) ([]*types.FigureRecord, error) {
	if party == "" {
		return nil, errors.NewValidationError("party", "must not be blank")
	}

	rows, err := c.fetchRows(ctx, figureAPIPath, party, url.Values{"POLY_NM": {party}})
	if err != nil {
		return nil, err
	}
	return c.mapFigureRows(rows), nil
}

// FetchFiguresPage fetches one page of the full figure roster
func (c *AssemblyClient) FetchFiguresPage(ctx context.Context, pageNo, pageSize int) ([]*types.FigureRecord, error) {
	if pageNo < 1 {
		return nil, errors.NewValidationError("pageNo", "must be positive")
	}
	if pageSize < 1 {
		return nil, errors.NewValidationError("pageSize", "must be positive")
	}

	key := fmt.Sprintf("page-%d", pageNo)
	rows, err := c.fetchRows(ctx, figureAPIPath, key, url.Values{
		"pIndex": {strconv.Itoa(pageNo)},
		"pSize":  {strconv.Itoa(pageSize)},
	})
	if err != nil {
		return nil, err
	}
	return c.mapFigureRows(rows), nil
}

// FetchAllFigures walks the full roster page by page.
// Stops on the first empty or short page.
func (c *AssemblyClient) FetchAllFigures(ctx context.Context) ([]*types.FigureRecord, error) {
	var all []*types.FigureRecord

	for pageNo := 1; pageNo <= allFiguresMaxPages; pageNo++ {
		page, err := c.FetchFiguresPage(ctx, pageNo, allFiguresPageSize)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		c.logger.WithFields(map[string]interface{}{
			"page":  pageNo,
			"count": len(page),
		}).Debug("Fetched figure roster page")

		if len(page) < allFiguresPageSize {
			break
		}
	}

	return all, nil
}

// FetchStatementsByFigure fetches recent public statements for a figure
// from the assembly broadcast feed
func (c *AssemblyClient) FetchStatementsByFigure(ctx context.Context, figureName string) ([]*types.StatementRecord, error) {
	if figureName == "" {
		return nil, errors.NewValidationError("figureName", "must not be blank")
	}

	rows, err := c.fetchRows(ctx, statementAPIPath, figureName, url.Values{"NAME": {figureName}})
	if err != nil {
		return nil, err
	}

	records := make([]*types.StatementRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := c.mapper.MapStatement(row, figureName)
		if err != nil {
			c.logger.WithError(err).WithField("figure", figureName).Warn("Skipping unmappable statement row")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// FetchBillsByProposer fetches bills proposed by the named figure
func (c *AssemblyClient) FetchBillsByProposer(ctx context.Context, proposerName string) ([]*types.BillRecord, error) {
	if proposerName == "" {
		return nil, errors.NewValidationError("proposerName", "must not be blank")
	}

	rows, err := c.fetchRows(ctx, billAPIPath, proposerName, url.Values{"PROPOSER": {proposerName}})
	if err != nil {
		return nil, err
	}

	records := make([]*types.BillRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := c.mapper.MapBill(row, proposerName)
		if err != nil {
			c.logger.WithError(err).WithField("proposer", proposerName).Warn("Skipping unmappable bill row")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *AssemblyClient) mapFigureRows(rows []json.RawMessage) []*types.FigureRecord {
	records := make([]*types.FigureRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := c.mapper.MapFigure(row)
		if err != nil {
			c.logger.WithError(err).Warn("Skipping unmappable figure row")
			continue
		}
		records = append(records, rec)
	}
	return records
}

// fetchRows performs one rate-limited GET against an API path and unwraps
// the row array from the envelope. key identifies the fetch in errors.
// The HTTP exchange runs under a circuit breaker so a dead upstream fails
// fast instead of stalling every sync worker on timeouts.
func (c *AssemblyClient) fetchRows(ctx context.Context, path, key string, params url.Values) ([]json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewFetchError(key, err)
	}

	reqURL, err := c.buildURL(path, params)
	if err != nil {
		return nil, errors.NewFetchError(key, err)
	}

	var body []byte
	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		var doErr error
		body, doErr = c.doRequest(ctx, reqURL)
		return doErr
	})
	if err != nil {
		if stderrors.Is(err, circuitbreaker.ErrCircuitOpen) || stderrors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return nil, errors.NewFetchError(key, err)
		}
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewFetchTimeoutError(key)
		}
		var urlErr *url.Error
		if stderrors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, errors.NewFetchTimeoutError(key)
		}
		return nil, errors.NewFetchError(key, err)
	}

	rows, err := parseEnvelope(body, path)
	if err != nil {
		return nil, errors.NewFetchError(key, err)
	}
	return rows, nil
}

func (c *AssemblyClient) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (c *AssemblyClient) buildURL(path string, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	u = u.JoinPath(path)

	query := url.Values{}
	query.Set("KEY", c.apiKey)
	query.Set("Type", "json")
	for k, vs := range params {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// envelopeSection is one element of the two-part response array: the first
// carries head metadata, the second the rows
type envelopeSection struct {
	Head []struct {
		ListTotalCount int `json:"list_total_count"`
		Result         *struct {
			Code    string `json:"CODE"`
			Message string `json:"MESSAGE"`
		} `json:"RESULT"`
	} `json:"head"`
	Row []json.RawMessage `json:"row"`
}

// parseEnvelope unwraps the portal's response shape:
// {"<path>": [{"head": [...]}, {"row": [...]}]}
// A missing root key with an INFO-200 result means no matching rows,
// which is returned as an empty slice rather than an error.
func parseEnvelope(body []byte, path string) ([]json.RawMessage, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	sectionsRaw, ok := root[path]
	if !ok {
		// Error responses put RESULT at the top level
		var result struct {
			Result struct {
				Code    string `json:"CODE"`
				Message string `json:"MESSAGE"`
			} `json:"RESULT"`
		}
		if err := json.Unmarshal(body, &result); err == nil && result.Result.Code != "" {
			if result.Result.Code == "INFO-200" {
				return nil, nil
			}
			return nil, fmt.Errorf("upstream error %s: %s", result.Result.Code, result.Result.Message)
		}
		return nil, fmt.Errorf("response missing %q section", path)
	}

	var sections []envelopeSection
	if err := json.Unmarshal(sectionsRaw, &sections); err != nil {
		return nil, fmt.Errorf("failed to parse %q section: %w", path, err)
	}

	for _, section := range sections {
		for _, head := range section.Head {
			if head.Result != nil && head.Result.Code != "" && head.Result.Code != "INFO-000" {
				return nil, fmt.Errorf("upstream error %s: %s", head.Result.Code, head.Result.Message)
			}
		}
	}

	for _, section := range sections {
		if section.Row != nil {
			return section.Row, nil
		}
	}
	return nil, nil
}
