package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter        metric.Int64Counter
	RequestDuration       metric.Float64Histogram
	DocumentsIngested     metric.Int64Counter
	DocumentsSkipped      metric.Int64Counter
	IngestDuration        metric.Float64Histogram
	RecommendationQueries metric.Int64Counter
	EmbeddingCalls        metric.Int64Counter
	TextExtractionTime    metric.Float64Histogram
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("coco-admissions-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	documentsIngested, err := meter.Int64Counter(
		"ingest.documents.written",
		metric.WithDescription("Documents written to the vector store"),
	)
	if err != nil {
		return nil, err
	}

	documentsSkipped, err := meter.Int64Counter(
		"ingest.documents.skipped",
		metric.WithDescription("Documents skipped during ingestion"),
	)
	if err != nil {
		return nil, err
	}

	ingestDuration, err := meter.Float64Histogram(
		"ingest.duration",
		metric.WithDescription("Collection rebuild duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	recommendationQueries, err := meter.Int64Counter(
		"recommendations.queries.total",
		metric.WithDescription("Recommendation queries served"),
	)
	if err != nil {
		return nil, err
	}

	embeddingCalls, err := meter.Int64Counter(
		"embeddings.calls.total",
		metric.WithDescription("Embedding provider calls"),
	)
	if err != nil {
		return nil, err
	}

	textExtractionTime, err := meter.Float64Histogram(
		"text_extraction.duration",
		metric.WithDescription("Document text extraction duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:        requestCounter,
		RequestDuration:       requestDuration,
		DocumentsIngested:     documentsIngested,
		DocumentsSkipped:      documentsSkipped,
		IngestDuration:        ingestDuration,
		RecommendationQueries: recommendationQueries,
		EmbeddingCalls:        embeddingCalls,
		TextExtractionTime:    textExtractionTime,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordIngest records the outcome of a collection rebuild.
func (m *Metrics) RecordIngest(collection string, written, skipped int64, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("ingest.collection", collection),
	}

	m.DocumentsIngested.Add(context.Background(), written, metric.WithAttributes(attrs...))
	m.DocumentsSkipped.Add(context.Background(), skipped, metric.WithAttributes(attrs...))
	m.IngestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordRecommendationQuery records a served recommendation query.
func (m *Metrics) RecordRecommendationQuery(searchType, status string) {
	attrs := []attribute.KeyValue{
		attribute.String("search.type", searchType),
		attribute.String("status", status),
	}

	m.RecommendationQueries.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordEmbeddingCall records an embedding provider call.
func (m *Metrics) RecordEmbeddingCall(provider string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("embeddings.provider", provider),
		attribute.Bool("success", success),
	}

	m.EmbeddingCalls.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordTextExtraction records document text extraction metrics
func (m *Metrics) RecordTextExtraction(kind, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("document.kind", kind),
		attribute.String("status", status),
	}

	m.TextExtractionTime.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}
