// Package ipcr is a client for the external accomplishment-tracking service that
// records staff output against individual performance commitments.
package ipcr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
)

const (
	outputCodesPath       = "ipcr-code"
	accomplishmentPath    = "Daily_Accomplishment/ticketing/api"
	responseBodyReadLimit = 2048
	defaultTimeout        = 10 * time.Second
	dateLayout            = "2006-01-02"
)

var errBaseURLRequired = errors.New("ipcr base url is required")

// Client talks to the accomplishment service. It never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
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

// WithTimeout bounds every call made by the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// OutputCode is one individual output the employee can report against. The output
// fields are kept raw so they can be echoed back exactly as the service sent them.
type OutputCode struct {
	ID                      int64           `json:"id"`
	IndividualOutput        json.RawMessage `json:"individual_output"`
	IndividualFinalOutputID json.RawMessage `json:"individual_final_output_id"`
	SemID                   json.RawMessage `json:"sem_id,omitempty"`
}

// Label returns individual_output as display text.
func (o OutputCode) Label() string {
	var s string
	if err := json.Unmarshal(o.IndividualOutput, &s); err == nil {
		return s
	}
	return strings.Trim(string(o.IndividualOutput), `"`)
}

func (o *OutputCode) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID                      json.RawMessage `json:"id"`
		IndividualOutput        json.RawMessage `json:"individual_output"`
		IndividualFinalOutputID json.RawMessage `json:"individual_final_output_id"`
		SemID                   json.RawMessage `json:"sem_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := parseID(raw.ID)
	if err != nil {
		return err
	}
	o.ID = id
	o.IndividualOutput = raw.IndividualOutput
	o.IndividualFinalOutputID = raw.IndividualFinalOutputID
	o.SemID = raw.SemID
	return nil
}

// parseID accepts ids sent either as JSON numbers or numeric strings.
func parseID(raw json.RawMessage) (int64, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid output code id %s", string(raw))
	}
	return id, nil
}

// Accomplishment is the report body posted for completed work.
type Accomplishment struct {
	Date                    string          `json:"date"`
	Description             string          `json:"description"`
	EmpCode                 string          `json:"emp_code"`
	IndividualFinalOutputID json.RawMessage `json:"individual_final_output_id"`
	IndividualOutput        json.RawMessage `json:"individual_output"`
	SemID                   json.RawMessage `json:"sem_id"`
}

// NewAccomplishment fills the report from a matched output code. A missing sem_id
// is sent as null.
func NewAccomplishment(day time.Time, description, empCode string, code OutputCode) Accomplishment {
	sem := code.SemID
	if len(bytes.TrimSpace(sem)) == 0 {
		sem = json.RawMessage("null")
	}
	return Accomplishment{
		Date:                    day.Format(dateLayout),
		Description:             description,
		EmpCode:                 empCode,
		IndividualFinalOutputID: nullIfEmpty(code.IndividualFinalOutputID),
		IndividualOutput:        nullIfEmpty(code.IndividualOutput),
		SemID:                   sem,
	}
}

func nullIfEmpty(raw json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// ListOutputCodes fetches the output codes registered for an employee.
func (c *Client) ListOutputCodes(ctx context.Context, empCode string) ([]OutputCode, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ipcr client not configured")
	}
	empCode = strings.TrimSpace(empCode)
	if empCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee code is required")
	}

	endpoint := c.buildURL(outputCodesPath) + "?" + url.Values{"emp_code": {empCode}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build output code request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute output code request")
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "output code request failed")
	}

	var codes []OutputCode
	if err := json.NewDecoder(resp.Body).Decode(&codes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode output code response")
	}
	return codes, nil
}

// SubmitAccomplishment posts one accomplishment report.
func (c *Client) SubmitAccomplishment(ctx context.Context, report Accomplishment) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "ipcr client not configured")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal accomplishment")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(accomplishmentPath), bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build accomplishment request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute accomplishment request")
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accomplishment submission failed")
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, responseBodyReadLimit))
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}

// StatusCodeOf extracts the HTTP status from a client error, or 0 when the call
// never got an answer.
func StatusCodeOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
