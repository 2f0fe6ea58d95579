package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SimpleDioney/Amostras/internal/metrics"
)

// WPPConfig configures a WPPClient.
type WPPConfig struct {
	BaseURL       string
	Session       string
	Token         string
	RatePerSecond float64
	Burst         int
}

// WPPClient sends messages through a WPPConnect server's REST API.
type WPPClient struct {
	baseURL string
	session string
	token   string
	client  *http.Client
	limits  *limiterPool
}

// NewWPPClient creates a client for the given server.
func NewWPPClient(cfg WPPConfig) *WPPClient {
	return &WPPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		session: cfg.Session,
		token:   cfg.Token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limits: newLimiterPool(cfg.RatePerSecond, cfg.Burst),
	}
}

type wppTarget struct {
	Phone   string `json:"phone"`
	IsGroup bool   `json:"isGroup"`
}

// SendText implements Sender.
func (c *WPPClient) SendText(ctx context.Context, to, text string) error {
	return c.post(ctx, "text", to, "send-message", struct {
		wppTarget
		Message string `json:"message"`
	}{target(to), text})
}

// SendList implements Sender.
func (c *WPPClient) SendList(ctx context.Context, to string, list ListMessage) error {
	return c.post(ctx, "list", to, "send-list-message", struct {
		wppTarget
		ListMessage
	}{target(to), list})
}

// SendFile implements Sender. The file is uploaded inline as base64.
func (c *WPPClient) SendFile(ctx context.Context, to string, file File) error {
	mime := file.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return c.post(ctx, "file", to, "send-file-base64", struct {
		wppTarget
		Filename string `json:"filename"`
		Caption  string `json:"caption,omitempty"`
		Base64   string `json:"base64"`
	}{
		target(to),
		file.Name,
		file.Caption,
		"data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(file.Data),
	})
}

func (c *WPPClient) post(ctx context.Context, kind, to, endpoint string, payload any) (err error) {
	defer func() {
		result := metrics.ResultOK
		if err != nil {
			result = metrics.ResultError
		}
		metrics.OutboundMessages.WithLabelValues(kind, result).Inc()
	}()

	if err := c.limits.get(to).Wait(ctx); err != nil {
		return fmt.Errorf("waiting for send slot: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", endpoint, err)
	}

	url := fmt.Sprintf("%s/api/%s/%s", c.baseURL, c.session, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// target converts a channel address into the phone form the API expects.
func target(address string) wppTarget {
	phone, _, _ := strings.Cut(address, "@")
	return wppTarget{Phone: phone, IsGroup: strings.HasSuffix(address, "@g.us")}
}
