package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	ChatRequests        metric.Int64Counter
	RetrievalHits       metric.Int64Counter
	GenerationFallbacks metric.Int64Counter
	CacheTierFallbacks  metric.Int64Counter
	WSConnections       metric.Int64Counter
	WSRefusals          metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("news-rag-chatbot")

	chatRequests, err := meter.Int64Counter(
		"chat.requests.total",
		metric.WithDescription("Total chat queries handled"),
	)
	if err != nil {
		return nil, err
	}

	retrievalHits, err := meter.Int64Counter(
		"retrieval.chunks.returned",
		metric.WithDescription("Chunks returned by similarity search"),
	)
	if err != nil {
		return nil, err
	}

	generationFallbacks, err := meter.Int64Counter(
		"generation.fallbacks.total",
		metric.WithDescription("Generation calls answered with the fixed apology"),
	)
	if err != nil {
		return nil, err
	}

	cacheTierFallbacks, err := meter.Int64Counter(
		"cache.tier_fallbacks.total",
		metric.WithDescription("Operations diverted from Redis to the in-process tier"),
	)
	if err != nil {
		return nil, err
	}

	wsConnections, err := meter.Int64Counter(
		"ws.connections.total",
		metric.WithDescription("Accepted WebSocket connections"),
	)
	if err != nil {
		return nil, err
	}

	wsRefusals, err := meter.Int64Counter(
		"ws.refusals.total",
		metric.WithDescription("Connections refused by admission control"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ChatRequests:        chatRequests,
		RetrievalHits:       retrievalHits,
		GenerationFallbacks: generationFallbacks,
		CacheTierFallbacks:  cacheTierFallbacks,
		WSConnections:       wsConnections,
		WSRefusals:          wsRefusals,
	}, nil
}

// RecordChatRequest increments the chat request counter with a status label.
func (m *Metrics) RecordChatRequest(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.ChatRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
