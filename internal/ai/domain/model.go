// Package domain defines the explanation analysis contract.
package domain

import "context"

// Analysis is the tutor's verdict on a learner's explanation.
type Analysis struct {
	Feedback       string   `json:"feedback"`
	Score          float64  `json:"understanding_score"`
	Strengths      []string `json:"strengths"`
	AreasToImprove []string `json:"areas_to_improve"`
}

// Service produces feedback on free-text explanations. Implementations must
// always return a usable Analysis; a model outage degrades to heuristic
// feedback, never to an error the learner sees.
type Service interface {
	AnalyzeExplanation(ctx context.Context, concept, learnerInput string) *Analysis
	GenerateStudyTips(ctx context.Context, weakTopics []string) string
}
