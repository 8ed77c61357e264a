package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"coco-admissions-platform/internal/config"
	"coco-admissions-platform/models"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

const eligibilitySystemMessage = `You are a data extractor. Given a graduate/undergraduate program requirement description that includes standardized tests and minimum scores, along with CGPA requirements, you will look for standardized tests like IELTS, TOEFL, DUOLINGO, GRE and minimum CGPA requirements and extract the score. If a score is not found, leave it out.`

// Fixed numeric schema for the structured extraction call. Every field is a
// number; a field the model cannot find is omitted, never invented.
const eligibilitySchema = `{
	"type": "object",
	"properties": {
		"IELTS": {"type": "number", "description": "English proficiency test often required of non-native speakers"},
		"TOEFL": {"type": "number", "description": "English proficiency test for non-native speakers"},
		"DUOLINGO": {"type": "number", "description": "English proficiency test"},
		"GRE": {"type": "number", "description": "Graduate Record Examination"},
		"CGPA": {"type": "number", "description": "Minimum CGPA required for the program"}
	},
	"additionalProperties": false
}`

type eligibilityPayload struct {
	IELTS    *float64 `json:"IELTS"`
	TOEFL    *float64 `json:"TOEFL"`
	DUOLINGO *float64 `json:"DUOLINGO"`
	GRE      *float64 `json:"GRE"`
	CGPA     *float64 `json:"CGPA"`
}

// CriteriaExtractor pulls numeric eligibility thresholds out of free-form
// program prose via an OpenAI function call with a strict numeric schema.
// It is the fallback behind the deterministic regex pass.
type CriteriaExtractor struct {
	client  *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewCriteriaExtractor(cfg *config.Config) (*CriteriaExtractor, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY for eligibility extraction")
	}
	return &CriteriaExtractor{
		client: openai.NewClient(cfg.OpenAIAPIKey),
		model:  cfg.EligibilityModel,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "EligibilityLLM",
			MaxRequests: 3,
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
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}, nil
}

// Extract runs the structured LLM call. A missing field stays absent in the
// result; the caller decides whether an error degrades to empty criteria.
func (e *CriteriaExtractor) Extract(ctx context.Context, eligibilityText string) (models.EligibilityCriteria, error) {
	tracer := otel.Tracer("eligibility-extractor")
	ctx, span := tracer.Start(ctx, "eligibility.extract")
	defer span.End()
	span.SetAttributes(
		attribute.String("eligibility.model", e.model),
		attribute.Int("eligibility.text_length", len(eligibilityText)),
	)

	if err := e.limiter.Wait(ctx); err != nil {
		return models.EligibilityCriteria{}, err
	}

	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.call(ctx, eligibilityText)
	})
	if err != nil {
		return models.EligibilityCriteria{}, err
	}
	return result.(models.EligibilityCriteria), nil
}

func (e *CriteriaExtractor) call(ctx context.Context, eligibilityText string) (models.EligibilityCriteria, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: eligibilitySystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: eligibilityText},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        "extract_test_scores",
					Description: "Extract standardized test scores and minimum CGPA from a program requirement description.",
					Parameters:  json.RawMessage(eligibilitySchema),
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: "extract_test_scores"},
		},
	})
	if err != nil {
		return models.EligibilityCriteria{}, err
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return models.EligibilityCriteria{}, fmt.Errorf("no tool call returned")
	}

	var payload eligibilityPayload
	arguments := resp.Choices[0].Message.ToolCalls[0].Function.Arguments
	if err := json.Unmarshal([]byte(arguments), &payload); err != nil {
		return models.EligibilityCriteria{}, fmt.Errorf("malformed tool arguments: %w", err)
	}

	return models.EligibilityCriteria{
		IELTS:    scoreFromPtr(payload.IELTS),
		TOEFL:    scoreFromPtr(payload.TOEFL),
		DUOLINGO: scoreFromPtr(payload.DUOLINGO),
		GRE:      scoreFromPtr(payload.GRE),
		CGPA:     scoreFromPtr(payload.CGPA),
	}, nil
}

func scoreFromPtr(p *float64) models.Score {
	if p == nil || *p < 0 {
		return models.Score{}
	}
	return models.NewScore(*p)
}
