package respondio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/roach88/remindsync/internal/domain"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://api.respond.io/v2"

	// DefaultTimeout bounds every request.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps the response body kept in an APIError.
	maxErrorBody = 512
)

// Custom field names written on every contact.
const (
	FieldDateISO  = "fecha_cita"
	FieldDateLong = "fecha_larga"
	FieldTime     = "hora_cita"
	FieldDoctor   = "nombre_doctor"
	FieldLocation = "location"
)

// CustomField is one name/value pair of a contact's custom fields.
type CustomField struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ContactPayload is the body of create and update requests.
type ContactPayload struct {
	FirstName    string        `json:"firstName,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	CustomFields []CustomField `json:"custom_fields"`
}

// PayloadFor builds the full create/update body for a contact.
func PayloadFor(c domain.ReminderContact) ContactPayload {
	return ContactPayload{
		FirstName: strings.TrimSpace(c.FirstName),
		Phone:     strings.TrimSpace(c.Phone),
		CustomFields: []CustomField{
			{Name: FieldDateISO, Value: c.DateISO},
			{Name: FieldDateLong, Value: strings.TrimSpace(c.DateLong)},
			{Name: FieldTime, Value: strings.TrimSpace(c.Time)},
			{Name: FieldDoctor, Value: strings.TrimSpace(c.Doctor)},
			{Name: FieldLocation, Value: strings.TrimSpace(c.Location)},
		},
	}
}

// UpsertAction tells which write an upsert performed.
type UpsertAction string

const (
	ActionCreated UpsertAction = "created"
	ActionUpdated UpsertAction = "updated"
)

// Client talks to the contact API of one workspace. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit paces outgoing requests to rps per second. Zero or negative
// disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for baseURL authenticated with token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetContact fetches a contact by phone. found is false when the API answers
// 404; any status other than 200 or 404 is an error.
func (c *Client) GetContact(ctx context.Context, phone string) (contact json.RawMessage, found bool, err error) {
	status, body, err := c.do(ctx, http.MethodGet, phone, nil)
	if err != nil {
		return nil, false, &APIError{Op: OpGet, Phone: phone, Err: err}
	}
	switch status {
	case http.StatusOK:
		return json.RawMessage(body), true, nil
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, newStatusError(OpGet, phone, status, body)
	}
}

// CreateContact creates the contact. 200 and 201 are success.
func (c *Client) CreateContact(ctx context.Context, payload ContactPayload) error {
	status, body, err := c.do(ctx, http.MethodPost, payload.Phone, payload)
	if err != nil {
		return &APIError{Op: OpCreate, Phone: payload.Phone, Err: err}
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return newStatusError(OpCreate, payload.Phone, status, body)
	}
	return nil
}

// UpdateContact writes payload over the contact identified by phone. Only 200
// is success. payload may carry a subset of custom fields.
func (c *Client) UpdateContact(ctx context.Context, phone string, payload ContactPayload) error {
	status, body, err := c.do(ctx, http.MethodPut, phone, payload)
	if err != nil {
		return &APIError{Op: OpUpdate, Phone: phone, Err: err}
	}
	if status != http.StatusOK {
		return newStatusError(OpUpdate, phone, status, body)
	}
	return nil
}

// Upsert creates the contact if the API does not know its phone, otherwise
// updates it.
//
// The existence check and the write are two requests, not a transaction: a
// concurrent external change between them can lose an update or race a
// duplicate create. The API keys contacts by phone, which bounds the damage.
func (c *Client) Upsert(ctx context.Context, contact domain.ReminderContact) (UpsertAction, error) {
	payload := PayloadFor(contact)

	_, found, err := c.GetContact(ctx, payload.Phone)
	if err != nil {
		return "", err
	}
	if !found {
		if err := c.CreateContact(ctx, payload); err != nil {
			return "", err
		}
		return ActionCreated, nil
	}
	if err := c.UpdateContact(ctx, payload.Phone, payload); err != nil {
		return "", err
	}
	return ActionUpdated, nil
}

// Tag sets a single custom field on an existing contact. It never reads first.
func (c *Client) Tag(ctx context.Context, phone, field string, value any) error {
	payload := ContactPayload{CustomFields: []CustomField{{Name: field, Value: value}}}
	status, body, err := c.do(ctx, http.MethodPut, phone, payload)
	if err != nil {
		return &APIError{Op: OpTag, Phone: phone, Err: err}
	}
	if status != http.StatusOK {
		return newStatusError(OpTag, phone, status, body)
	}
	return nil
}

// contactURL returns the address of the contact identified by phone.
func (c *Client) contactURL(phone string) string {
	return fmt.Sprintf("%s/contact/phone:%s", c.baseURL, url.PathEscape(phone))
}

func (c *Client) do(ctx context.Context, method, phone string, payload any) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.contactURL(phone), reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("contact api request",
		"method", method,
		"phone", phone,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	return resp.StatusCode, body, nil
}
