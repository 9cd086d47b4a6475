// Package gateway is the HTTP client for the Evolution-style WhatsApp gateway.
package gateway

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
	"time"

	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/phone"
)

// ErrInvalidNumber is returned before any network call when the number is too short.
var ErrInvalidNumber = errors.New("whatsapp number must have at least 12 digits")

// Endpoint addresses one gateway instance.
type Endpoint struct {
	BaseURL  string
	APIKey   string
	Instance string
}

// Media is an image or document message.
type Media struct {
	// URL is a public or presigned URL, or a base64 payload.
	URL       string
	MediaType string // "image" or "document"
	MimeType  string
	Caption   string
	FileName  string
}

// ConnectionState reports whether the instance is paired.
type ConnectionState struct {
	Instance string `json:"instance"`
	State    string `json:"state"`
}

// Pairing is returned by the connect endpoint while the instance is disconnected.
type Pairing struct {
	Code        string `json:"code"`
	PairingCode string `json:"pairingCode"`
	Base64      string `json:"base64"`
}

// Client talks to the gateway.
type Client struct {
	http *http.Client
	log  *logger.Logger
}

// NewClient creates a client with the given request timeout.
func NewClient(timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendMediaRequest struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	MimeType  string `json:"mimetype,omitempty"`
	Media     string `json:"media"`
	Caption   string `json:"caption"`
	FileName  string `json:"fileName,omitempty"`
}

type connectionStateResponse struct {
	Instance struct {
		InstanceName string `json:"instanceName"`
		State        string `json:"state"`
	} `json:"instance"`
}

// SendText posts a text message to number (digits, country code included).
func (c *Client) SendText(ctx context.Context, ep Endpoint, number, text string) error {
	normalized, err := checkNumber(number)
	if err != nil {
		return err
	}
	if err := c.post(ctx, ep, "/message/sendText/", sendTextRequest{Number: normalized, Text: text}); err != nil {
		return err
	}
	c.log.Info("whatsapp text sent", "number", normalized, "instance", ep.Instance)
	return nil
}

// SendMedia posts an image or document message.
func (c *Client) SendMedia(ctx context.Context, ep Endpoint, number string, media Media) error {
	normalized, err := checkNumber(number)
	if err != nil {
		return err
	}
	mediaType := media.MediaType
	if mediaType == "" {
		mediaType = "image"
	}
	payload := sendMediaRequest{
		Number:    normalized,
		MediaType: mediaType,
		MimeType:  media.MimeType,
		Media:     media.URL,
		Caption:   media.Caption,
		FileName:  media.FileName,
	}
	if err := c.post(ctx, ep, "/message/sendMedia/", payload); err != nil {
		return err
	}
	c.log.Info("whatsapp media sent", "number", normalized, "instance", ep.Instance, "mediatype", mediaType)
	return nil
}

// ConnectionState reads the pairing state of the instance.
func (c *Client) ConnectionState(ctx context.Context, ep Endpoint) (ConnectionState, error) {
	var resp connectionStateResponse
	if err := c.get(ctx, ep, "/instance/connectionState/", &resp); err != nil {
		return ConnectionState{}, err
	}
	name := resp.Instance.InstanceName
	if name == "" {
		name = ep.Instance
	}
	return ConnectionState{Instance: name, State: resp.Instance.State}, nil
}

// Connect asks the gateway for a pairing QR payload.
func (c *Client) Connect(ctx context.Context, ep Endpoint) (Pairing, error) {
	var resp Pairing
	if err := c.get(ctx, ep, "/instance/connect/", &resp); err != nil {
		return Pairing{}, err
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, ep Endpoint, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL(ep, path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, ep, nil)
}

func (c *Client) get(ctx context.Context, ep Endpoint, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL(ep, path), nil)
	if err != nil {
		return err
	}
	return c.do(req, ep, out)
}

func (c *Client) do(req *http.Request, ep Endpoint, out any) error {
	if ep.APIKey != "" {
		req.Header.Set("apikey", ep.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode whatsapp response: %w", err)
	}
	return nil
}

func endpointURL(ep Endpoint, path string) string {
	return strings.TrimRight(ep.BaseURL, "/") + path + url.PathEscape(ep.Instance)
}

func checkNumber(number string) (string, error) {
	digits := phone.Digits(number)
	if len(digits) < 12 {
		return "", ErrInvalidNumber
	}
	return digits, nil
}
