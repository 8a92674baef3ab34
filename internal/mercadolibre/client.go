package mercadolibre

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/seller/entity"
)

// DefaultBaseURL is the public marketplace API.
const DefaultBaseURL = "https://api.mercadolibre.com"

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 2
	defaultBackoff    = 200 * time.Millisecond
	maxBackoff        = 2 * time.Second

	errorBodyLimit   = 4 << 10
	profileBodyLimit = 1 << 20
)

var errTokenRequired = errors.New("mercadolibre: access token is required")

// APIError is a non-2xx answer from the marketplace.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("mercadolibre: status %d", e.Status)
	}
	return fmt.Sprintf("mercadolibre: status %d: %s", e.Status, e.Message)
}

// Temporary reports whether the request may succeed when repeated.
func (e *APIError) Temporary() bool { return e.Status >= http.StatusInternalServerError }

// Client fetches the profile behind a marketplace access token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	maxRetries uint64
	backoff    time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithTimeout sets the per-attempt timeout of the default HTTP client. It
// has no effect together with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxRetries bounds the retries after the first attempt. 0 disables them.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = uint64(n)
		}
	}
}

// WithBackoff sets the base delay of the exponential backoff.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		timeout:    defaultTimeout,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

type userResponse struct {
	Nickname         *string `json:"nickname"`
	Email            *string `json:"email"`
	FirstName        *string `json:"first_name"`
	LastName         *string `json:"last_name"`
	CountryID        *string `json:"country_id"`
	SiteID           *string `json:"site_id"`
	RegistrationDate *string `json:"registration_date"`
	SellerExperience *string `json:"seller_experience"`
	Phone            *struct {
		AreaCode *string `json:"area_code"`
		Number   *string `json:"number"`
	} `json:"phone"`
	Address *struct {
		Address *string `json:"address"`
		City    *string `json:"city"`
		State   *string `json:"state"`
		ZipCode *string `json:"zip_code"`
	} `json:"address"`
	Identification *struct {
		Number *string `json:"number"`
	} `json:"identification"`
	Company *struct {
		CorporateName *string `json:"corporate_name"`
		BrandName     *string `json:"brand_name"`
	} `json:"company"`
}

// FetchProfile calls GET /users/me with token. Network failures and 5xx
// answers are retried with exponential backoff; 4xx answers are not.
func (c *Client) FetchProfile(ctx context.Context, token string) (*entity.Profile, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errTokenRequired
	}

	var out *entity.Profile
	b := retry.WithMaxRetries(c.maxRetries, retry.WithCappedDuration(maxBackoff, retry.NewExponential(c.backoff)))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		p, err := c.fetchOnce(ctx, token)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.Temporary() {
				return err
			}
			if ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) fetchOnce(ctx context.Context, token string) (*entity.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("mercadolibre: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mercadolibre: execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp)
	}

	var body userResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, profileBodyLimit)).Decode(&body); err != nil {
		return nil, fmt.Errorf("mercadolibre: decode profile: %w", err)
	}
	return body.profile(), nil
}

func apiError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	e := &APIError{Status: resp.StatusCode}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Message != "":
			e.Message = body.Message
		case body.Error != "":
			e.Message = body.Error
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	return e
}

func (u *userResponse) profile() *entity.Profile {
	p := &entity.Profile{
		Nickname:         clean(u.Nickname),
		Email:            clean(u.Email),
		FirstName:        clean(u.FirstName),
		LastName:         clean(u.LastName),
		CountryID:        clean(u.CountryID),
		SiteID:           clean(u.SiteID),
		RegistrationDate: clean(u.RegistrationDate),
		SellerExperience: clean(u.SellerExperience),
	}
	if u.Phone != nil {
		p.Phone = joinNonEmpty(" ", u.Phone.AreaCode, u.Phone.Number)
	}
	if u.Address != nil {
		p.Address = clean(u.Address.Address)
		p.City = clean(u.Address.City)
		p.State = clean(u.Address.State)
		p.ZipCode = clean(u.Address.ZipCode)
	}
	if u.Identification != nil {
		p.TaxID = clean(u.Identification.Number)
	}
	if u.Company != nil {
		p.CorporateName = clean(u.Company.CorporateName)
		p.BrandName = clean(u.Company.BrandName)
	}
	return p
}

// clean maps blank strings to absent.
func clean(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func joinNonEmpty(sep string, parts ...*string) *string {
	var kept []string
	for _, part := range parts {
		if v := clean(part); v != nil {
			kept = append(kept, *v)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	s := strings.Join(kept, sep)
	return &s
}
