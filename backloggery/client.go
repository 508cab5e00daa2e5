package backloggery

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
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client talks to the Backloggery fetch endpoint
type Client struct {
	endpoint   string
	userAgent  string
	contact    string
	version    string
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Backloggery client
func NewClient(logger zerolog.Logger, opts ...Option) (*Client, error) {
	c := &Client{
		endpoint:   DefaultEndpoint,
		contact:    DefaultContact,
		version:    DefaultVersion,
		timeout:    30 * time.Second,
		httpClient: &http.Client{},
		logger:     logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid endpoint %q", ErrInvalidConfig, c.endpoint)
	}

	if c.userAgent == "" {
		c.userAgent = fmt.Sprintf(userAgentFormat, c.version, c.contact)
	}

	return c, nil
}

// UserAgent returns the User-Agent header sent with every request
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Endpoint returns the URL requests are posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchLibrary returns the raw game objects tracked by username, in the
// order the service sent them
func (c *Client) FetchLibrary(ctx context.Context, username string) ([]json.RawMessage, error) {
	payload, err := c.fetch(ctx, username, newLibraryRequest(username))
	if err != nil {
		return nil, err
	}

	var games []json.RawMessage
	if payload[0] != '[' {
		return nil, fmt.Errorf("%w: library payload for %q is not an array", ErrMalformedPayload, username)
	}
	if err := json.Unmarshal(payload, &games); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	return games, nil
}

// FetchGameInfo returns the raw object for one game instance
func (c *Client) FetchGameInfo(ctx context.Context, id int64) (json.RawMessage, error) {
	key := strconv.FormatInt(id, 10)
	payload, err := c.fetch(ctx, key, gameRequest{GameInstID: id})
	if err != nil {
		return nil, err
	}

	if payload[0] != '{' {
		return nil, fmt.Errorf("%w: game payload for %s is not an object", ErrMalformedPayload, key)
	}

	return payload, nil
}

// fetch posts body and unwraps the payload. The returned payload is never
// empty; an absent or falsy answer is reported as a NoDataError for key.
func (c *Client) fetch(ctx context.Context, key string, body any) (json.RawMessage, error) {
	reqID := uuid.NewString()
	log := c.logger.With().Str("request_id", reqID).Str("key", key).Logger()

	data, err := c.doRequest(ctx, body)
	if err != nil {
		log.Debug().Err(err).Msg("Backloggery request failed")
		return nil, err
	}

	payload, err := unwrapPayload(data)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			log.Debug().Msg("Backloggery returned no data")
			return nil, &NoDataError{Key: key}
		}
		return nil, err
	}

	log.Debug().
		Int("bytes", len(data)).
		Msg("Retrieved payload from Backloggery")

	return payload, nil
}

// doRequest performs the POST and returns the response body
func (c *Client) doRequest(ctx context.Context, body any) ([]byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

// unwrapPayload extracts the payload member of a response envelope. It
// returns ErrNoData when the whole response or its payload is falsy.
func unwrapPayload(data []byte) (json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: response is not JSON", ErrMalformedPayload)
	}
	if isFalsy(data) {
		return nil, ErrNoData
	}
	if data[0] != '{' {
		return nil, fmt.Errorf("%w: response is not an object", ErrMalformedPayload)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	payload := json.RawMessage(bytes.TrimSpace(env.Payload))
	if len(payload) == 0 || isFalsy(payload) {
		return nil, ErrNoData
	}

	return payload, nil
}

// isFalsy reports whether a valid JSON value is null, false, zero, an empty
// string or an empty container
func isFalsy(v []byte) bool {
	switch v[0] {
	case 'n', 'f':
		return true
	case 't':
		return false
	case '"':
		return len(v) == 2
	case '{', '[':
		return len(bytes.TrimSpace(v[1:len(v)-1])) == 0
	default:
		f, err := strconv.ParseFloat(string(v), 64)
		return err == nil && f == 0
	}
}
