package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elimisha-app/elimisha/internal/ai/domain"
	"github.com/elimisha-app/elimisha/internal/config"
	"go.uber.org/zap"
)

const maxFeedbackLength = 200

type Service struct {
	log  *zap.Logger
	cfg  config.AIConfig
	http *http.Client
}

func New(log *zap.Logger, cfg config.Config) domain.Service {
	return &Service{
		log:  log.Named("ai.service"),
		cfg:  cfg.AI,
		http: &http.Client{Timeout: cfg.AI.Timeout},
	}
}

func (s *Service) AnalyzeExplanation(ctx context.Context, concept, learnerInput string) *domain.Analysis {
	prompt := fmt.Sprintf(
		`Analyze this student explanation about %s: %q

Provide: 1) Feedback (2 sentences), 2) Score 0-1, 3) What they got right, 4) What to improve.
Keep response concise.`,
		concept, learnerInput,
	)

	text, err := s.generate(ctx, prompt, 250, 0.7)
	if err != nil {
		s.log.Warn("model call failed, using heuristic feedback", zap.Error(err))
		return fallbackAnalysis(concept, learnerInput)
	}

	return &domain.Analysis{
		Feedback:       feedbackFromModel(text, concept, learnerInput),
		Score:          scoreExplanation(concept, learnerInput),
		Strengths:      extractStrengths(learnerInput),
		AreasToImprove: suggestImprovements(concept),
	}
}

func (s *Service) GenerateStudyTips(ctx context.Context, weakTopics []string) string {
	if len(weakTopics) == 0 {
		return "Keep up the great work! Continue practicing regularly."
	}

	prompt := fmt.Sprintf(
		"Give 3 study tips for learning: %s. Be brief and practical.",
		strings.Join(weakTopics, ", "),
	)
	text, err := s.generate(ctx, prompt, 150, 0.8)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.log.Warn("study tips call failed, using fallback", zap.Error(err))
		}
		return fallbackStudyTips(weakTopics)
	}
	return strings.TrimSpace(text)
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
}

type generateResponse struct {
	GeneratedText string `json:"generated_text"`
}

func (s *Service) generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	body, err := json.Marshal(generateRequest{
		Inputs: prompt,
		Parameters: generateParameters{
			MaxNewTokens: maxTokens,
			Temperature:  temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode prompt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference api status %d", resp.StatusCode)
	}

	// The inference API returns either a bare object or a one-element array.
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	var list []generateResponse
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0].GeneratedText, nil
	}
	var single generateResponse
	if err := json.Unmarshal(raw, &single); err == nil {
		return single.GeneratedText, nil
	}
	return "", fmt.Errorf("unrecognized response shape")
}

// feedbackFromModel prefers the model's text and falls back to templated
// feedback when the model returns something too short to be useful.
func feedbackFromModel(text, concept, learnerInput string) string {
	feedback := strings.TrimSpace(text)
	if len(feedback) > 20 {
		if len(feedback) > maxFeedbackLength {
			feedback = feedback[:maxFeedbackLength] + "..."
		}
		return feedback
	}

	if len(strings.Fields(learnerInput)) < 15 {
		return fmt.Sprintf("Good start on %s! Try to expand your explanation with more details and examples.", concept)
	}
	return fmt.Sprintf("Nice explanation of %s! You've covered the main points. Consider adding specific examples to strengthen your understanding.", concept)
}
