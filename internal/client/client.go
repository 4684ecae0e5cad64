// Package client calls the associados HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/clube/associados/internal/domain"
	"github.com/clube/associados/internal/pkg/httpretry"
)

// Client issues member requests against one API base URL, e.g.
// "http://localhost:3000/api".
type Client struct {
	baseURL string
	http    httpretry.HTTPDoer
}

// New creates a Client. doer is usually a *httpretry.RetryClient.
func New(baseURL string, doer httpretry.HTTPDoer) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: doer}
}

// Response is a completed API exchange.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// ErrorMessage returns the "error" field of a JSON error body, or the raw
// body when it is not one.
func (r *Response) ErrorMessage() string {
	var env struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(r.Body, &env) == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(string(r.Body))
}

// Pretty returns the body as indented JSON, or as-is when it is not JSON.
func (r *Response) Pretty() string {
	var out bytes.Buffer
	if err := json.Indent(&out, r.Body, "", "  "); err != nil {
		return string(r.Body)
	}
	return out.String()
}

func (c *Client) membersURL() string { return c.baseURL + "/associados" }

func (c *Client) memberURL(cpf string) string {
	return c.membersURL() + "/" + url.PathEscape(strings.TrimSpace(cpf))
}

// Create posts a new member.
func (c *Client) Create(ctx context.Context, a domain.Associado) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.membersURL(), a)
}

// List fetches every member.
func (c *Client) List(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, c.membersURL(), nil)
}

// Find fetches one member by CPF.
func (c *Client) Find(ctx context.Context, cpf string) (*Response, error) {
	return c.do(ctx, http.MethodGet, c.memberURL(cpf), nil)
}

// Update sends a partial update; only non-nil patch fields are sent.
func (c *Client) Update(ctx context.Context, cpf string, patch domain.AssociadoPatch) (*Response, error) {
	return c.do(ctx, http.MethodPut, c.memberURL(cpf), patch)
}

// Delete removes a member by CPF.
func (c *Client) Delete(ctx context.Context, cpf string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, c.memberURL(cpf), nil)
}

func (c *Client) do(ctx context.Context, method, target string, payload any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &Response{
		Method:     method,
		URL:        target,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       data,
	}, nil
}
