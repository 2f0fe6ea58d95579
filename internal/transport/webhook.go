package transport

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// maxWebhookBody bounds the size of an inbound webhook payload.
const maxWebhookBody = 1 << 20

// WebhookHandler receives WPPConnect webhook calls and feeds the gateway.
type WebhookHandler struct {
	gateway *Gateway
	secret  string
}

// NewWebhookHandler creates a handler. When secret is non-empty every call
// must carry a valid X-Webhook-Signature.
func NewWebhookHandler(gateway *Gateway, secret string) *WebhookHandler {
	return &WebhookHandler{gateway: gateway, secret: secret}
}

// wppEvent is the subset of the WPPConnect webhook payload we use.
type wppEvent struct {
	Event        string `json:"event"`
	From         string `json:"from"`
	Body         string `json:"body"`
	IsGroupMsg   bool   `json:"isGroupMsg"`
	FromMe       bool   `json:"fromMe"`
	SelectedID   string `json:"selectedId"`
	ListResponse *struct {
		SingleSelectReply *struct {
			SelectedRowID string `json:"selectedRowId"`
		} `json:"singleSelectReply"`
	} `json:"listResponse"`
}

func (e wppEvent) inbound() InboundEvent {
	ev := InboundEvent{
		SenderID:    e.From,
		Body:        e.Body,
		SelectionID: e.SelectedID,
		IsGroup:     e.IsGroupMsg,
		FromSelf:    e.FromMe,
	}
	if e.ListResponse != nil && e.ListResponse.SingleSelectReply != nil && e.ListResponse.SingleSelectReply.SelectedRowID != "" {
		ev.SelectionID = e.ListResponse.SingleSelectReply.SelectedRowID
	}
	return ev
}

// HandleEvent handles POST /api/transport/webhook.
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if h.secret != "" && !VerifySignature(h.secret, body, r.Header.Get("X-Webhook-Signature")) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload wppEvent
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	// Only new messages are interesting; acks, presence and the like are
	// acknowledged and ignored.
	if payload.Event != "" && payload.Event != "onmessage" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.gateway.Submit(payload.inbound()); err != nil {
		if errors.Is(err, ErrQueueFull) {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "processing error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// VerifySignature checks a hex HMAC-SHA256 of body, optionally prefixed with
// "sha256=".
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	signature = strings.TrimPrefix(signature, "sha256=")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
