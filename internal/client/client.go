// Package client provides a Go client for the discuss comments API.
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

	"github.com/alphabot-ai/discuss/internal/model"
)

// StatusError is returned for any non-success HTTP status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed (%d): %s", e.Op, e.StatusCode, strings.TrimSpace(e.Body))
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client is a discuss API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a new client. Per-call deadlines come from the context; the
// HTTP client timeout is only an upper bound.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// doRequest performs an HTTP request with a JSON body.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.HTTPClient.Do(req)
}

// expect checks the status and decodes the body into out when out is non-nil.
func expect(resp *http.Response, op string, out any, ok ...int) error {
	for _, code := range ok {
		if resp.StatusCode == code {
			if out == nil {
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("%s: decode response: %w", op, err)
			}
			return nil
		}
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
}

func commentPath(id int64) string {
	return fmt.Sprintf("/api/comments/%d/", id)
}

// ListComments fetches all comments, newest first.
func (c *Client) ListComments(ctx context.Context) ([]model.Comment, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/comments/", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var comments []model.Comment
	if err := expect(resp, "list comments", &comments, http.StatusOK); err != nil {
		return nil, err
	}
	return comments, nil
}

// GetComment fetches a single comment.
func (c *Client) GetComment(ctx context.Context, id int64) (model.Comment, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, commentPath(id), nil)
	if err != nil {
		return model.Comment{}, err
	}
	defer resp.Body.Close()

	var comment model.Comment
	if err := expect(resp, "get comment", &comment, http.StatusOK); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

// CreateComment posts a new comment. An empty image is omitted.
func (c *Client) CreateComment(ctx context.Context, text, image string) (model.Comment, error) {
	reqBody := map[string]any{"text": text}
	if image != "" {
		reqBody["image"] = image
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/comments/", reqBody)
	if err != nil {
		return model.Comment{}, err
	}
	defer resp.Body.Close()

	var comment model.Comment
	if err := expect(resp, "create comment", &comment, http.StatusOK, http.StatusCreated); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

// UpdateText replaces the text of a comment.
func (c *Client) UpdateText(ctx context.Context, id int64, text string) (model.Comment, error) {
	return c.patch(ctx, "update comment", id, map[string]any{"text": text})
}

// UpdateLikes sets the absolute like count of a comment.
func (c *Client) UpdateLikes(ctx context.Context, id int64, likes int) (model.Comment, error) {
	return c.patch(ctx, "update likes", id, map[string]any{"likes": likes})
}

func (c *Client) patch(ctx context.Context, op string, id int64, body map[string]any) (model.Comment, error) {
	resp, err := c.doRequest(ctx, http.MethodPatch, commentPath(id), body)
	if err != nil {
		return model.Comment{}, err
	}
	defer resp.Body.Close()

	var comment model.Comment
	if err := expect(resp, op, &comment, http.StatusOK); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, commentPath(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return expect(resp, "delete comment", nil, http.StatusOK, http.StatusNoContent)
}
