package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/elimisha-app/elimisha/internal/ai/domain"
)

var explanatoryWords = []string{
	"because", "therefore", "thus", "since", "as a result", "which means", "leads to",
}

// scoreExplanation grades an explanation without a model: a base score plus
// credit for length, concept keyword coverage and causal language.
func scoreExplanation(concept, explanation string) float64 {
	score := 0.5

	wordCount := len(strings.Fields(explanation))
	switch {
	case wordCount >= 50:
		score += 0.2
	case wordCount >= 30:
		score += 0.15
	case wordCount >= 20:
		score += 0.1
	}

	lower := strings.ToLower(explanation)
	matches := 0
	for _, word := range strings.Fields(strings.ToLower(concept)) {
		if strings.Contains(lower, word) {
			matches++
		}
	}
	if matches > 0 {
		score += math.Min(0.2, float64(matches)*0.1)
	}

	for _, word := range explanatoryWords {
		if strings.Contains(lower, word) {
			score += 0.1
			break
		}
	}

	return math.Round(math.Min(1.0, score)*100) / 100
}

func extractStrengths(explanation string) []string {
	var strengths []string
	lower := strings.ToLower(explanation)

	if len(strings.Fields(explanation)) >= 20 {
		strengths = append(strengths, "Provided detailed explanation")
	}
	if containsAny(lower, "example", "instance", "such as") {
		strengths = append(strengths, "Used examples to illustrate points")
	}
	if containsAny(lower, "because", "therefore", "thus") {
		strengths = append(strengths, "Explained cause and effect relationships")
	}
	if len(strengths) == 0 {
		strengths = append(strengths, "Attempted to explain the concept")
	}
	return strengths
}

func suggestImprovements(concept string) []string {
	return []string{
		fmt.Sprintf("Add more specific details about %s", concept),
		"Include real-world examples",
		"Explain the underlying mechanisms",
	}
}

func fallbackAnalysis(concept, learnerInput string) *domain.Analysis {
	return &domain.Analysis{
		Feedback: fmt.Sprintf(
			"Thank you for your explanation about %s. You've made a good attempt. Keep practicing and try to add more specific details!",
			concept,
		),
		Score:          scoreExplanation(concept, learnerInput),
		Strengths:      extractStrengths(learnerInput),
		AreasToImprove: suggestImprovements(concept),
	}
}

func fallbackStudyTips(weakTopics []string) string {
	tips := []string{
		fmt.Sprintf("Review the fundamentals of %s", strings.Join(weakTopics, ", ")),
		"Practice with real-world examples and case studies",
		"Create summary notes and flashcards for quick review",
		"Test yourself regularly to reinforce learning",
	}
	var b strings.Builder
	for i, tip := range tips {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, tip)
	}
	return b.String()
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
