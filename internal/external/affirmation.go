// Package external holds HTTP clients for third-party wellness APIs.
package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// ErrEmptyAffirmation is returned when the API answers without a message.
var ErrEmptyAffirmation = errors.New("affirmation API returned an empty message")

// StatusError reports a non-200 answer from an upstream API.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status code %d", e.StatusCode)
}

// AffirmationClient fetches a random affirmation.
type AffirmationClient struct {
	url  string
	http *http.Client
}

func NewAffirmationClient(url string, client *http.Client) *AffirmationClient {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &AffirmationClient{url: url, http: client}
}

type affirmationResponse struct {
	Affirmation string `json:"affirmation"`
}

// Fetch returns one affirmation message.
func (c *AffirmationClient) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("build affirmation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch affirmation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	var body affirmationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode affirmation: %w", err)
	}
	msg := strings.TrimSpace(body.Affirmation)
	if msg == "" {
		return "", ErrEmptyAffirmation
	}
	return msg, nil
}
