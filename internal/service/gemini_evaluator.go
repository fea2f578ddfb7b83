package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/Classtrail/config"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errEvaluatorUnavailable = errors.New("gemini client not initialized")

type geminiEvaluator struct {
	model *genai.GenerativeModel
	cfg   *config.Config
}

// geminiVerdict is the JSON document the model is instructed to return.
type geminiVerdict struct {
	Approved    bool     `json:"approved"`
	Feedback    string   `json:"feedback"`
	Score       float64  `json:"score"`
	Suggestions []string `json:"suggestions"`
}

// NewGeminiEvaluator builds the evaluator backed by Gemini. Without an API key every call fails,
// which the grading pipeline records as a manual-review evaluation.
func NewGeminiEvaluator(lc fx.Lifecycle, cfg *config.Config) (GenerativeEvaluator, error) {
	if cfg.Gemini.ApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Answers will be queued for manual review.")
		return &geminiEvaluator{cfg: cfg}, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.Gemini.ApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	model := client.GenerativeModel(cfg.Gemini.Model)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)
	return &geminiEvaluator{model: model, cfg: cfg}, nil
}

func (s *geminiEvaluator) Evaluate(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error) {
	if s.model == nil {
		return nil, errEvaluatorUnavailable
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := s.generate(ctx, buildEvaluationPrompt(req))
	if err != nil {
		log.Error().Err(err).Str("exercise", req.ExerciseTitle).Msg("Gemini API error during evaluation")
		return nil, err
	}
	return parseVerdict(raw)
}

func (s *geminiEvaluator) Encourage(ctx context.Context, req EncouragementRequest) (string, error) {
	if s.model == nil {
		return "", errEvaluatorUnavailable
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var b strings.Builder
	b.WriteString("You are a friendly programming tutor. Write a short motivational message (at most three sentences) ")
	b.WriteString("for a student who just received feedback on an exercise answer.\n\n")
	if req.Approved {
		b.WriteString("The answer was APPROVED.\n")
	} else {
		b.WriteString("The answer was NOT approved yet.\n")
	}
	b.WriteString("Question:\n---\n")
	b.WriteString(req.Statement)
	b.WriteString("\n---\nFeedback given:\n---\n")
	b.WriteString(req.Feedback)
	b.WriteString("\n---\n")
	b.WriteString(`Respond strictly as JSON: {"message": "<text>"}`)

	raw, err := s.generate(ctx, b.String())
	if err != nil {
		return "", err
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := sonic.UnmarshalString(stripCodeFence(raw), &out); err != nil {
		return "", fmt.Errorf("could not parse encouragement: %w", err)
	}
	return strings.TrimSpace(out.Message), nil
}

func (s *geminiEvaluator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Gemini.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Gemini.Timeout)
}

func (s *geminiEvaluator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if isQuotaExceeded(err) {
			return "", fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini returned no content")
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	if text.Len() == 0 {
		return "", errors.New("gemini returned no text content")
	}
	return text.String(), nil
}

func buildEvaluationPrompt(req EvaluationRequest) string {
	var b strings.Builder
	b.WriteString("You are an experienced programming instructor grading a student's code.\n")
	if req.ExerciseTitle != "" {
		b.WriteString("Exercise: ")
		b.WriteString(req.ExerciseTitle)
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion statement:\n---\n")
	b.WriteString(req.Statement)
	b.WriteString("\n---\n\n")
	if req.ReferenceAnswer != nil && *req.ReferenceAnswer != "" {
		b.WriteString("Reference solution (other correct approaches are acceptable):\n---\n")
		b.WriteString(*req.ReferenceAnswer)
		b.WriteString("\n---\n\n")
	}
	b.WriteString("Student's answer:\n---\n")
	b.WriteString(req.Answer)
	b.WriteString("\n---\n\n")
	b.WriteString("Judge correctness, logic, good practices and readability. ")
	b.WriteString("Approve only if the answer solves the question.\n")
	b.WriteString("Respond strictly as JSON with this shape:\n")
	b.WriteString(`{"approved": true|false, "feedback": "<constructive feedback>", "score": <0-100>, "suggestions": ["<improvement>", ...]}`)
	return b.String()
}

// parseVerdict decodes the model output, tolerating markdown fences, and clamps the score.
func parseVerdict(raw string) (*EvaluationResult, error) {
	var verdict geminiVerdict
	if err := sonic.UnmarshalString(stripCodeFence(raw), &verdict); err != nil {
		log.Warn().Err(err).Str("rawResponse", raw).Msg("Failed to parse Gemini verdict")
		return nil, fmt.Errorf("could not parse evaluator response: %w", err)
	}
	suggestions := verdict.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return &EvaluationResult{
		Approved:    verdict.Approved,
		Score:       clampScore(verdict.Score),
		Feedback:    strings.TrimSpace(verdict.Feedback),
		Suggestions: suggestions,
	}, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isQuotaExceeded(err error) bool {
	if status.Code(err) == codes.ResourceExhausted {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota")
}
