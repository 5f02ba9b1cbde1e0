// Package client talks to the hostelhub HTTP API on behalf of a logged-in
// user. The Session holds the bearer token and the cached wishlist.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hostelhub-backend-go/internal/models"
	"hostelhub-backend-go/internal/services"
)

// ErrNoSession is returned before any I/O when a call needs a token and the
// session has none.
var ErrNoSession = errors.New("not logged in")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Session *Session
}

func New(baseURL string, session *Session) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Session: session,
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out, true)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}, auth bool) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, body, out, auth)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}, auth bool) error {
	token := ""
	if auth {
		token = c.Session.Token()
		if token == "" {
			return ErrNoSession
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var payload struct {
			Message string            `json:"message"`
			Errors  map[string]string `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Message != "" {
			apiErr.Message = payload.Message
			apiErr.Fields = payload.Errors
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Login stores the returned token, role and profile in the session.
func (c *Client) Login(ctx context.Context, email, password string) (services.LoginResult, error) {
	var result services.LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &result, false)
	if err != nil {
		return result, err
	}
	return result, c.Session.Set(SessionData{
		Token:        result.Token,
		RefreshToken: result.RefreshToken,
		Role:         result.Role,
		ProfileID:    result.ProfileID,
		Email:        result.Email,
	})
}

func (c *Client) Logout(ctx context.Context) error {
	if c.Session.Token() != "" {
		_ = c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil, true)
	}
	return c.Session.Clear()
}

// Hostels lists hostels through the server-side filter pipeline.
func (c *Client) Hostels(ctx context.Context, f services.FilterState) ([]models.Hostel, error) {
	var resp struct {
		Items []models.Hostel `json:"items"`
	}
	path := "/api/hostels"
	if q := f.Query().Encode(); q != "" {
		path += "?" + q
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp, false); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) HostelPhotos(ctx context.Context, hostelID string) ([]models.Image, error) {
	var resp struct {
		Images []models.Image `json:"images"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/hostels/"+hostelID+"/photos", nil, &resp, false); err != nil {
		return nil, err
	}
	return resp.Images, nil
}

func (c *Client) RequestVisit(ctx context.Context, req services.VisitRequest) (models.Visit, error) {
	var visit models.Visit
	err := c.doJSON(ctx, http.MethodPost, "/api/students/request-visit", req, &visit, true)
	return visit, err
}

func (c *Client) StudentVisits(ctx context.Context) ([]models.Visit, error) {
	var resp struct {
		Items []models.Visit `json:"items"`
	}
	err := c.getJSON(ctx, "/api/students/visits", &resp)
	return resp.Items, err
}

func (c *Client) TakeAdmission(ctx context.Context, hostelID string) (models.Student, error) {
	var student models.Student
	err := c.doJSON(ctx, http.MethodPost, "/api/students/take-admission", map[string]string{"hostelId": hostelID}, &student, true)
	return student, err
}

func (c *Client) OwnerVisits(ctx context.Context) ([]models.Visit, error) {
	var resp struct {
		Items []models.Visit `json:"items"`
	}
	err := c.getJSON(ctx, "/api/owners/visits", &resp)
	return resp.Items, err
}
