package estimator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/fitfeast/internal/diary"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

const nutritionistInstruction = "You are a professional nutritionist. Keep tips concise, bulleted, and encouraging."

// contentGenerator is the slice of the genai Models service we use.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements Estimator and Advisor on the Gemini API.
type Gemini struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	log     *zap.Logger
}

type GeminiOption func(*Gemini)

// WithTimeout bounds each call. Zero leaves it to the transport.
func WithTimeout(d time.Duration) GeminiOption {
	return func(g *Gemini) { g.timeout = d }
}

func WithLogger(l *zap.Logger) GeminiOption {
	return func(g *Gemini) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGemini creates a client for the Gemini API.
func NewGemini(ctx context.Context, apiKey, model string, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGemini(client.Models, model, opts...), nil
}

func newGemini(models contentGenerator, model string, opts ...GeminiOption) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	g := &Gemini{models: models, model: model, log: zap.NewNop()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Estimate asks for a JSON object matching estimateSchema and validates it.
func (g *Gemini) Estimate(ctx context.Context, description string) (diary.Draft, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return diary.Draft{}, ErrEmptyDescription
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	prompt := fmt.Sprintf("Estimate the nutrition for: %q", description)
	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   estimateSchema(),
		},
	)
	if err != nil {
		g.log.Warn("estimate request failed", zap.String("model", g.model), zap.Error(err))
		return diary.Draft{}, fmt.Errorf("%w: %w", ErrEstimate, err)
	}
	if resp == nil {
		return diary.Draft{}, fmt.Errorf("%w: empty response", ErrInvalidEstimate)
	}

	draft, err := ParseEstimate(resp.Text())
	if err != nil {
		g.log.Warn("estimate rejected", zap.String("description", description), zap.Error(err))
		return diary.Draft{}, err
	}
	g.log.Debug("estimate accepted",
		zap.String("food_item", draft.FoodItem),
		zap.Int("total_calories", draft.TotalCalories()))
	return draft, nil
}

// Advise asks for three short tips about the history.
func (g *Gemini) Advise(ctx context.Context, history []diary.FoodEntry) (string, error) {
	if len(history) == 0 {
		return "", nil
	}
	data, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("marshal history: %w", err)
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	prompt := fmt.Sprintf("Analyze this food log and give 3 short health tips based on these entries: %s. Be encouraging.", data)
	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(nutritionistInstruction, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("advice request: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (g *Gemini) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func estimateSchema() *genai.Schema {
	cats := make([]string, len(diary.Categories))
	for i, c := range diary.Categories {
		cats[i] = string(c)
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"foodItem": {Type: genai.TypeString},
			"category": {
				Type:        genai.TypeString,
				Enum:        cats,
				Description: "Must be one of: " + strings.Join(cats, ", "),
			},
			"servingSize":     {Type: genai.TypeNumber},
			"unit":            {Type: genai.TypeString},
			"caloriesPerUnit": {Type: genai.TypeNumber},
		},
		Required: []string{"foodItem", "category", "servingSize", "unit", "caloriesPerUnit"},
	}
}
