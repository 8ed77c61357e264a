package ai

import (
	"context"
	"fmt"
	"log"
	"time"

	"coco-admissions-platform/internal/config"
	"coco-admissions-platform/internal/telemetry"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// Embedder turns text into a fixed-length vector. The same client instance
// must serve both ingestion and query time: mixing embedding models makes
// distances meaningless.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingClient is the process-wide embedding dependency, constructed once
// at startup and injected. Default provider is Google Generative AI
// (text-embedding-004); OpenAI is the alternative.
type EmbeddingClient struct {
	provider string

	genaiClient *genai.Client
	googleModel string

	openaiClient *openai.Client
	openaiModel  string

	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	metrics *telemetry.Metrics
}

func NewEmbeddingClient(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) (*EmbeddingClient, error) {
	c := &EmbeddingClient{
		metrics:     metrics,
		provider:    cfg.EmbeddingsProvider,
		googleModel: cfg.GoogleEmbeddingsModel,
		openaiModel: cfg.OpenAIEmbeddingsModel,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "EmbeddingsAPI",
			MaxRequests: 5,
			Interval:    10 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
			},
		}),
		// Ingestion embeds one document per entity; keep under provider RPM.
		limiter: rate.NewLimiter(rate.Limit(10), 10),
	}

	switch cfg.EmbeddingsProvider {
	case "google", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
		}
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, err
		}
		c.genaiClient = client
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("missing OPENAI_API_KEY for embeddings")
		}
		c.openaiClient = openai.NewClient(cfg.OpenAIAPIKey)
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}

	return c, nil
}

// Embed returns an embedding vector for the given text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	tracer := otel.Tracer("embedding-client")
	ctx, span := tracer.Start(ctx, "embeddings.encode")
	defer span.End()
	span.SetAttributes(
		attribute.String("embeddings.provider", c.provider),
		attribute.Int("embeddings.text_length", len(text)),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		if c.genaiClient != nil {
			return c.embedGoogle(ctx, text)
		}
		return c.embedOpenAI(ctx, text)
	})
	if c.metrics != nil {
		c.metrics.RecordEmbeddingCall(c.provider, err == nil)
	}
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

func (c *EmbeddingClient) embedGoogle(ctx context.Context, text string) ([]float32, error) {
	model := c.genaiClient.EmbeddingModel(c.googleModel)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embedding.Values, nil
}

func (c *EmbeddingClient) embedOpenAI(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.openaiClient.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.openaiModel),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

func (c *EmbeddingClient) Close() error {
	if c.genaiClient != nil {
		return c.genaiClient.Close()
	}
	return nil
}
