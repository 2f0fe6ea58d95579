package transport

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the channel webhook on the given router.
func RegisterRoutes(r chi.Router, webhook *WebhookHandler) {
	r.Post("/api/transport/webhook", webhook.HandleEvent)
}
