package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
)

const webhookEvent = "stock.depleting"

// WebhookNotifier posts depletion alerts as JSON to an HTTP endpoint.
// With a secret, each body is signed with HMAC-SHA256 in X-Signature-256.
type WebhookNotifier struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier. An empty secret disables
// signing.
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

type webhookContainer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type webhookStock struct {
	Kind      model.ResourceKind `json:"kind"`
	Label     string             `json:"label"`
	HoursLeft float64            `json:"hours_left"`
	EmptyAt   time.Time          `json:"empty_at"`
}

type webhookPayload struct {
	Event      string           `json:"event"`
	Level      AlertLevel       `json:"level"`
	DetectedAt time.Time        `json:"detected_at"`
	Container  webhookContainer `json:"container"`
	Stock      webhookStock     `json:"stock"`
	Message    string           `json:"message"`
}

func newWebhookPayload(alert Alert) webhookPayload {
	at := alert.At.UTC()
	return webhookPayload{
		Event:      webhookEvent,
		Level:      alert.Level,
		DetectedAt: at,
		Container:  webhookContainer{ID: alert.ContainerID, Name: alert.ContainerName},
		Stock: webhookStock{
			Kind:      alert.Kind,
			Label:     alert.Kind.Label(),
			HoursLeft: alert.HoursLeft,
			EmptyAt:   at.Add(time.Duration(alert.HoursLeft * float64(time.Hour))),
		},
		Message: alert.Message,
	}
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(newWebhookPayload(alert))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Upkeep/1.0")
	req.Header.Set("X-Upkeep-Event", webhookEvent)
	req.Header.Set("X-Upkeep-Delivery", uuid.NewString())
	if w.secret != "" {
		req.Header.Set("X-Signature-256", "sha256="+sign(body, []byte(w.secret)))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook for %s/%s: %w", alert.ContainerName, alert.Kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func sign(body, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
