// Package client is the Go client for the mentorhub API: a typed REST
// client plus the stateful controllers driving messaging and booking.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mentorhub/mentorhub-api/models"
)

// Session carries the caller's identity and bearer token. It is passed in
// explicitly; nothing in this package reads ambient global state.
type Session struct {
	UserID string
	Token  string
}

// BearerToken returns the token ready for the Authorization header. Tokens
// restored from client-side storage sometimes arrive wrapped in quotes, a
// serialization artifact that must be stripped before use.
func (s Session) BearerToken() string {
	return strings.Trim(s.Token, `"`)
}

// APIError is a non-2xx response from the server, carrying the server's own
// message where one was provided.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// SendMessageRequest is the body for sending a message.
type SendMessageRequest struct {
	Receiver       string `json:"receiver"`
	Text           string `json:"text"`
	Attachment     string `json:"attachment,omitempty"`
	AttachmentType string `json:"attachmentType,omitempty"`
}

// BookSessionRequest is the body for booking a session.
type BookSessionRequest struct {
	Mentor            string `json:"mentor"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Date              string `json:"date"`
	Duration          int    `json:"duration"`
	CommunicationType string `json:"communicationType"`
	Notes             string `json:"notes,omitempty"`
}

// APIClient is the typed REST client for the mentorhub API.
type APIClient struct {
	BaseURL string
	Session Session
	HTTP    *http.Client
}

// NewAPIClient creates a client for the given base URL and session.
func NewAPIClient(baseURL string, session Session) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Session: session,
		HTTP:    http.DefaultClient,
	}
}

// Conversations fetches the caller's conversation list.
func (c *APIClient) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := c.do(ctx, http.MethodGet, "/api/v1/messages/conversations", nil, &conversations)
	return conversations, err
}

// Messages fetches the full history with a partner, oldest first. The server
// marks the partner's messages to the caller as read as a side effect.
func (c *APIClient) Messages(ctx context.Context, partnerID string) ([]models.Message, error) {
	var messages []models.Message
	err := c.do(ctx, http.MethodGet, "/api/v1/messages/"+partnerID, nil, &messages)
	return messages, err
}

// SendMessage persists a new message and returns the authoritative record.
func (c *APIClient) SendMessage(ctx context.Context, req SendMessageRequest) (*models.Message, error) {
	var message models.Message
	if err := c.do(ctx, http.MethodPost, "/api/v1/messages", req, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// DeleteMessage removes a message the caller sent.
func (c *APIClient) DeleteMessage(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/messages/"+messageID, nil, nil)
}

// UnreadCount returns the caller's total unread message count.
func (c *APIClient) UnreadCount(ctx context.Context) (int64, error) {
	var resp struct {
		Count int64 `json:"count"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/messages/unread", nil, &resp)
	return resp.Count, err
}

// BookSession creates a session booking and returns the persisted record.
func (c *APIClient) BookSession(ctx context.Context, req BookSessionRequest) (*models.Session, error) {
	var session models.Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// WSTicket mints a ticket for connecting to the realtime channel.
func (c *APIClient) WSTicket(ctx context.Context) (string, error) {
	var resp struct {
		Ticket string `json:"ticket"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/auth/ws-ticket", nil, &resp)
	return resp.Ticket, err
}

// do issues one request and decodes the normalized response into out. Error
// bodies are parsed into APIError so callers can surface the server message
// verbatim.
func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Session.BearerToken())

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(normalizeBody(raw), out)
}

// decodeAPIError extracts the server's error message from the standard error
// envelope, falling back to the bare status when the body is unreadable.
func decodeAPIError(status int, raw []byte) error {
	var envelope models.ErrorMessageResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Response.Message != "" {
		return &APIError{Status: status, Message: envelope.Response.Message}
	}
	var flat struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &flat); err == nil && flat.Error != "" {
		return &APIError{Status: status, Message: flat.Error}
	}
	return &APIError{Status: status}
}

// normalizeBody collapses the two response shapes seen in the wild, a flat
// payload or one nested under "data", into the flat form.
func normalizeBody(raw []byte) []byte {
	var probe struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && len(probe.Data) > 0 {
		return probe.Data
	}
	return raw
}
