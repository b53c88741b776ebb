// Package telegram is a small client for the Telegram Bot API, limited to the
// calls the bot needs: sendMessage, getMe and setWebhook.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const DefaultBaseURL = "https://api.telegram.org"

// APIError is returned for transport failures and for responses with ok=false.
type APIError struct {
	Method      string
	StatusCode  int
	ErrorCode   int
	Description string
	Err         error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("telegram %s: %v", e.Method, e.Err)
	}
	return fmt.Sprintf("telegram %s: error %d: %s", e.Method, e.ErrorCode, e.Description)
}

func (e *APIError) Unwrap() error { return e.Err }

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendMessage sends text to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, parseMode, text string) (*Message, error) {
	params := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if parseMode != "" {
		params["parse_mode"] = parseMode
	}

	var msg Message
	if _, err := c.call(ctx, "sendMessage", params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var u User
	if _, err := c.call(ctx, "getMe", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetWebhook registers webhookURL and returns the API's description of the result.
func (c *Client) SetWebhook(ctx context.Context, webhookURL string) (string, error) {
	var ok bool
	return c.call(ctx, "setWebhook", map[string]any{"url": webhookURL}, &ok)
}

func (c *Client) call(ctx context.Context, method string, params, result any) (string, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	var body io.Reader = http.NoBody
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return "", &APIError{Method: method, Err: fmt.Errorf("error marshaling params: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", &APIError{Method: method, Err: fmt.Errorf("error creating request: %w", redact(err))}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &APIError{Method: method, Err: fmt.Errorf("error sending request: %w", redact(err))}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APIError{Method: method, StatusCode: resp.StatusCode, Err: fmt.Errorf("error reading response body: %w", err)}
	}

	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", &APIError{Method: method, StatusCode: resp.StatusCode, Err: fmt.Errorf("error unmarshaling JSON: %w", err)}
	}
	if !r.OK {
		return "", &APIError{Method: method, StatusCode: resp.StatusCode, ErrorCode: r.ErrorCode, Description: r.Description}
	}

	if result != nil && len(r.Result) > 0 {
		if err := json.Unmarshal(r.Result, result); err != nil {
			return "", &APIError{Method: method, StatusCode: resp.StatusCode, Err: fmt.Errorf("error unmarshaling result: %w", err)}
		}
	}
	return r.Description, nil
}

// redact strips the request URL, which embeds the bot token.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
