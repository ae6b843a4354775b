// Package api is the HTTP client for the contratos backend. It implements
// the annotation persistence collaborator: creating issue and bookmark
// annotations under a contract and listing the ones already persisted.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Xlonenzo/contratos/internal/annotation"
	"github.com/Xlonenzo/contratos/internal/document"
)

// Config holds the client settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for a local backend.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000",
		Timeout: 15 * time.Second,
	}
}

// Client talks to the backend REST API. It is safe for use from the single
// UI goroutine plus the async submit commands the UI spawns.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger installs a logger; default is nop.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a backend client.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	c := &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rangeDescriptor is the wire form of a logical range.
type rangeDescriptor struct {
	AnchorPath   []int `json:"anchor_path"`
	AnchorOffset int   `json:"anchor_offset"`
	FocusPath    []int `json:"focus_path"`
	FocusOffset  int   `json:"focus_offset"`
}

func describeRange(r document.Range) rangeDescriptor {
	return rangeDescriptor{
		AnchorPath:   r.Anchor.Path,
		AnchorOffset: r.Anchor.Offset,
		FocusPath:    r.Focus.Path,
		FocusOffset:  r.Focus.Offset,
	}
}

// createPayload mirrors the backend's issue/bookmark create schema.
type createPayload struct {
	Title         string                 `json:"title"`
	Description   string                 `json:"description,omitempty"`
	Priority      document.IssuePriority `json:"priority,omitempty"`
	IssueType     document.IssueType     `json:"issue_type,omitempty"`
	SelectionText string                 `json:"selection_text"`
	TextPosition  rangeDescriptor        `json:"text_position"`
}

func endpointFor(kind annotation.Kind, contractID int64) string {
	if kind == annotation.KindBookmark {
		return fmt.Sprintf("/api/v1/contracts/%d/bookmarks", contractID)
	}
	return fmt.Sprintf("/api/v1/contracts/%d/issues", contractID)
}

// CreateAnnotation persists a new annotation and returns the record with
// its server-assigned id.
func (c *Client) CreateAnnotation(ctx context.Context, req annotation.CreateRequest) (*annotation.Record, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	payload := createPayload{
		Title:         req.Title,
		Description:   req.Description,
		SelectionText: req.SelectionText,
		TextPosition:  describeRange(req.Range),
	}
	if req.Kind == annotation.KindIssue {
		payload.Priority = req.Priority
		payload.IssueType = req.IssueType
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode annotation: %w", err)
	}

	url := c.baseURL + endpointFor(req.Kind, req.ContractID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create annotation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("creating annotation",
		zap.String("kind", string(req.Kind)),
		zap.Int64("contract", req.ContractID))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("create annotation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("create annotation: status %d: %s",
			resp.StatusCode, readErrorBody(resp.Body))
	}

	var rec annotation.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode annotation response: %w", err)
	}
	if rec.Kind == "" {
		rec.Kind = req.Kind
	}
	if rec.ContractID == 0 {
		rec.ContractID = req.ContractID
	}
	return &rec, nil
}

// ListAnnotations fetches the persisted issues and bookmarks for a
// contract, merged in server order.
func (c *Client) ListAnnotations(ctx context.Context, contractID int64) ([]annotation.Record, error) {
	var out []annotation.Record
	for _, kind := range []annotation.Kind{annotation.KindIssue, annotation.KindBookmark} {
		recs, err := c.list(ctx, kind, contractID)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (c *Client) list(ctx context.Context, kind annotation.Kind, contractID int64) ([]annotation.Record, error) {
	url := c.baseURL + endpointFor(kind, contractID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("list %ss request: %w", kind, err)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("list %ss: status %d: %s",
			kind, resp.StatusCode, readErrorBody(resp.Body))
	}

	var recs []annotation.Record
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", kind, err)
	}
	for i := range recs {
		if recs[i].Kind == "" {
			recs[i].Kind = kind
		}
	}
	return recs, nil
}

// readErrorBody returns a bounded snippet of an error response body.
func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(data) == 0 {
		return "<no body>"
	}
	return string(data)
}
