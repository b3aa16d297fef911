package deliver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"

	"sodatrack-backend/internal/catalog"
	"sodatrack-backend/internal/summary"
	"sodatrack-backend/lib/timezone"
)

type WebhookConfig struct {
	Url     string
	Timeout time.Duration
}

// WebhookSender posts run events to a configured http endpoint.
type WebhookSender struct {
	http *resty.Client
	url  string
}

func NewWebhookSender(config WebhookConfig) (*WebhookSender, error) {
	if config.Url == "" {
		return nil, fmt.Errorf("no webhook url configured")
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = time.Second * 10
	}

	client := resty.New().
		SetHeader("User-Agent", "Publix-Price-Scraper/1.0").
		SetTimeout(timeout)
	return &WebhookSender{http: client, url: config.Url}, nil
}

func (s *WebhookSender) Name() string {
	return "webhook"
}

// every event goes out in the same envelope so receivers can route on
// event_type alone.
type webhookEnvelope struct {
	EventType string `json:"event_type"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

func (s *WebhookSender) send(ctx context.Context, eventType string, data any) error {
	ctx, span := tracer.Start(ctx, "webhook:"+eventType)
	defer span.End()

	res, err := s.http.R().
		SetContext(ctx).
		SetBody(webhookEnvelope{
			EventType: eventType,
			Timestamp: timezone.Now().Format(time.RFC3339),
			Data:      data,
		}).
		Post(s.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post webhook")
		return err
	}
	if res.IsError() {
		err := fmt.Errorf("webhook returned status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook rejected event")
		return err
	}

	slog.InfoContext(ctx, "sent webhook event", "event_type", eventType)
	return nil
}

func (s *WebhookSender) SendRunSummary(ctx context.Context, snapshot summary.Snapshot) error {
	return s.send(ctx, "scraping_summary", snapshot)
}

type webhookFailure struct {
	Error   string           `json:"error"`
	Context summary.Snapshot `json:"context"`
}

func (s *WebhookSender) SendFailure(ctx context.Context, message string, snapshot summary.Snapshot) error {
	return s.send(ctx, "error", webhookFailure{Error: message, Context: snapshot})
}

const productUpdateLimit = 10

type webhookProducts struct {
	ProductCount int               `json:"product_count"`
	Products     []catalog.Product `json:"products"`
}

// SendProductUpdate announces freshly stored products. Only a sample
// goes over the wire.
func (s *WebhookSender) SendProductUpdate(ctx context.Context, products []catalog.Product) error {
	sample := products
	if len(sample) > productUpdateLimit {
		sample = sample[:productUpdateLimit]
	}
	return s.send(ctx, "product_update", webhookProducts{
		ProductCount: len(products),
		Products:     sample,
	})
}
