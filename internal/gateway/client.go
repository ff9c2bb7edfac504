// Package gateway is the outbound boundary of the chat client: it turns the
// active conversation's history plus a new input line into a gateway request
// and a gateway response into reply text.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/matiasleandrokruk/charla/internal/domain/conversation"
)

// APIError is a normalized gateway error: the HTTP status plus the message
// from the response's error field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: status %d: %s", e.Status, e.Message)
}

// Client posts chat requests to a running gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the gateway at baseURL. The transport
// timeout is a backstop; callers abort earlier by cancelling the context.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sendRequest struct {
	Messages []wireMessage `json:"messages"`
}

type sendResponse struct {
	Reply string `json:"reply"`
	Error string `json:"error"`
}

// Send posts the history plus the new user input and returns the reply text.
// Cancelling ctx aborts the in-flight call; the returned error then satisfies
// errors.Is(err, context.Canceled) so callers can tell an abort from a
// gateway failure.
func (c *Client) Send(ctx context.Context, history []conversation.Message, input string) (string, error) {
	msgs := make([]wireMessage, 0, len(history)+1)
	for _, m := range history {
		msgs = append(msgs, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	msgs = append(msgs, wireMessage{Role: "user", Content: input})

	body, err := json.Marshal(sendRequest{Messages: msgs})
	if err != nil {
		return "", err
	}

	url := c.baseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Wraps context.Canceled when the caller aborted.
		return "", fmt.Errorf("gateway: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var decoded sendResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&decoded); decodeErr != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", &APIError{Status: resp.StatusCode, Message: "request failed"}
		}
		return "", fmt.Errorf("gateway: decode response: %w", decodeErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := decoded.Error
		if msg == "" {
			msg = "request failed"
		}
		return "", &APIError{Status: resp.StatusCode, Message: msg}
	}

	return decoded.Reply, nil
}

// IsCanceled reports whether err is the result of a caller-initiated abort.
// Cancellation is not a failure: it must never surface as an error message.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
