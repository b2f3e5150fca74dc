// Package upstream is the HTTP client for the camp-management API. The
// service treats it as a black-box data source: a season-scoped list of
// session enrollments, batched person lookups and financial transaction
// details. All calls carry a short-lived bearer token exchanged for the
// raw API key.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/pkg/config"
)

// Attendee status filters understood by the attendees endpoint.
const (
	StatusEnrolled = 2
	StatusApplied  = 4
	StatusBoth     = 6
)

const tokenLifetime = time.Hour

// Session is one bookable session row.
type Session struct {
	ID        int64  `json:"ID"`
	Name      string `json:"Name"`
	StartDate string `json:"StartDate"`
	EndDate   string `json:"EndDate"`
	SortOrder int    `json:"SortOrder"`
}

// ProgramSeason links a program to a session with its date span.
type ProgramSeason struct {
	SessionID int64  `json:"SessionID"`
	StartDate string `json:"StartDate"`
	EndDate   string `json:"EndDate"`
}

// Program is one program row with its season sessions.
type Program struct {
	ID             int64           `json:"ID"`
	Name           string          `json:"Name"`
	ProgramSeasons []ProgramSeason `json:"ProgramSeasons"`
}

// SessionProgramStatus is one enrollment unit on an attendee.
type SessionProgramStatus struct {
	SessionID     int64  `json:"SessionID"`
	ProgramID     int64  `json:"ProgramID"`
	StatusID      int    `json:"StatusID"`
	StatusName    string `json:"StatusName"`
	EffectiveDate string `json:"EffectiveDate"`
}

// Attendee is one camper with their per-session statuses.
type Attendee struct {
	PersonID             int64                  `json:"PersonID"`
	SessionProgramStatus []SessionProgramStatus `json:"SessionProgramStatus"`
}

// PersonName splits the name object on person records.
type PersonName struct {
	First string `json:"First"`
	Last  string `json:"Last"`
}

// Relative links a person to a guardian or ward.
type Relative struct {
	ID         int64  `json:"ID"`
	Name       string `json:"Name"`
	IsGuardian bool   `json:"IsGuardian"`
	IsWard     bool   `json:"IsWard"`
	IsPrimary  bool   `json:"IsPrimary"`
}

// ContactDetails carries emails and phones when requested.
type ContactDetails struct {
	Emails []string `json:"Emails"`
	Phones []string `json:"Phones"`
}

// CamperDetails carries camp-specific person fields.
type CamperDetails struct {
	CampGradeName   string `json:"CampGradeName"`
	SchoolGradeName string `json:"SchoolGradeName"`
}

// Person is one person record from the persons endpoint.
type Person struct {
	ID             int64           `json:"ID"`
	Name           PersonName      `json:"Name"`
	DateOfBirth    string          `json:"DateOfBirth"`
	GenderName     string          `json:"GenderName"`
	Relatives      []Relative      `json:"Relatives"`
	ContactDetails *ContactDetails `json:"ContactDetails,omitempty"`
	CamperDetails  *CamperDetails  `json:"CamperDetails,omitempty"`
}

// Transaction is one financial transaction detail row.
type Transaction struct {
	PersonID    int64   `json:"personId"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	IsReversed  bool    `json:"isReversed"`
	PostDate    string  `json:"postDate"`
}

// PersonFetchOptions toggle the expansion flags on person lookups.
type PersonFetchOptions struct {
	ContactDetails bool
	Relatives      bool
	CamperDetails  bool
}

// Client calls the camp-management API.
type Client struct {
	baseURL         string
	apiKey          string
	subscriptionKey string
	seasonID        int
	pageSize        int
	http            *http.Client
	logger          *zap.Logger
	metrics         fetchObserver
	now             func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	clientID    int
}

// New builds a client from configuration.
func New(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:          cfg.APIKey,
		subscriptionKey: cfg.SubscriptionKey,
		seasonID:        cfg.SeasonID,
		pageSize:        pageSize,
		http:            &http.Client{Timeout: cfg.RequestTimeout},
		logger:          logger,
		now:             time.Now,
		clientID:        cfg.ClientID,
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.subscriptionKey != ""
}

type fetchObserver interface {
	ObserveUpstreamFetch(operation string, duration time.Duration)
}

// SetMetrics attaches the fetch-duration recorder.
func (c *Client) SetMetrics(m fetchObserver) {
	c.metrics = m
}

type authResponse struct {
	Token     string `json:"Token"`
	ClientIDs string `json:"ClientIDs"`
}

// authenticate exchanges the API key for a bearer token. The auth
// endpoint expects the raw key without a Bearer prefix.
func (c *Client) authenticate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/apikey", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("authenticate: status %d: %s", resp.StatusCode, string(body))
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return fmt.Errorf("authenticate: decode: %w", err)
	}

	c.token = auth.Token
	c.tokenExpiry = c.now().Add(tokenLifetime)
	if c.clientID == 0 && auth.ClientIDs != "" {
		first := strings.TrimSpace(strings.Split(auth.ClientIDs, ",")[0])
		if id, err := strconv.Atoi(first); err == nil {
			c.clientID = id
		}
	}

	c.logger.Info("upstream authenticated", zap.Int("client_id", c.clientID))
	return nil
}

func (c *Client) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return nil
	}
	return c.authenticate(ctx)
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// ClientID returns the primary client id resolved during authentication.
func (c *Client) ClientID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := c.ensureToken(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer())

	start := c.now()
	resp, err := c.http.Do(req)
	if c.metrics != nil {
		c.metrics.ObserveUpstreamFetch(path, c.now().Sub(start))
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("get %s: status %d: %s", path, resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

type page[T any] struct {
	Results    []T `json:"Results"`
	TotalCount int `json:"TotalCount"`
}

const maxPages = 100

// paginate walks a paged endpoint until TotalCount is satisfied.
func paginate[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var all []T
	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("pagenumber", strconv.Itoa(pageNum))
		q.Set("pagesize", strconv.Itoa(c.pageSize))

		var p page[T]
		if err := c.get(ctx, path, q, &p); err != nil {
			return all, err
		}

		all = append(all, p.Results...)
		if len(p.Results) == 0 || len(all) >= p.TotalCount {
			break
		}
	}
	return all, nil
}

func (c *Client) seasonQuery() url.Values {
	q := url.Values{}
	q.Set("clientid", strconv.Itoa(c.ClientID()))
	q.Set("seasonid", strconv.Itoa(c.seasonID))
	return q
}

// Sessions lists all sessions for the configured season.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	return paginate[Session](ctx, c, "/sessions", c.seasonQuery())
}

// Programs lists all programs for the configured season.
func (c *Client) Programs(ctx context.Context) ([]Program, error) {
	return paginate[Program](ctx, c, "/sessions/programs", c.seasonQuery())
}

// Attendees lists attendees filtered by enrollment status.
func (c *Client) Attendees(ctx context.Context, status int) ([]Attendee, error) {
	q := c.seasonQuery()
	q.Set("status", strconv.Itoa(status))
	return paginate[Attendee](ctx, c, "/sessions/attendees", q)
}

// Transactions lists financial transaction details for a season year.
func (c *Client) Transactions(ctx context.Context, seasonYear int) ([]Transaction, error) {
	q := url.Values{}
	q.Set("clientid", strconv.Itoa(c.ClientID()))
	q.Set("seasonid", strconv.Itoa(seasonYear))
	return paginate[Transaction](ctx, c, "/financials/transactiondetails", q)
}

// Person fetches a single person record.
func (c *Client) Person(ctx context.Context, id int64, opts PersonFetchOptions) (*Person, error) {
	q := url.Values{}
	q.Set("clientid", strconv.Itoa(c.ClientID()))
	if opts.ContactDetails {
		q.Set("includecontactdetails", "true")
	}
	if opts.Relatives {
		q.Set("includerelatives", "true")
	}
	if opts.CamperDetails {
		q.Set("includecamperdetails", "true")
	}

	var p Person
	if err := c.get(ctx, fmt.Sprintf("/persons/%d", id), q, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PersonsBatch resolves many person ids. The provider has no bulk person
// endpoint, so this issues one GET per id. Ids that fail to resolve are
// skipped, not fatal; callers decide how to represent the gap.
func (c *Client) PersonsBatch(ctx context.Context, ids []int64, opts PersonFetchOptions) ([]Person, error) {
	out := make([]Person, 0, len(ids))
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		p, err := c.Person(ctx, id, opts)
		if err != nil {
			c.logger.Warn("person lookup failed", zap.Int64("person_id", id), zap.Error(err))
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}
