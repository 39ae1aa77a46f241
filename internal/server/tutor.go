package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	responsedomain "github.com/elimisha-app/elimisha/internal/response/domain"
)

const defaultHistoryLimit = 20

type submitResponseRequest struct {
	Concept      string `json:"concept"`
	LearnerInput string `json:"learner_input"`
}

func (s *Server) SubmitResponse(c *gin.Context) {
	user := currentUser(c)

	var req submitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.responseSvc.Submit(c.Request.Context(), responsedomain.SubmitRequest{
		User:         user,
		Concept:      req.Concept,
		LearnerInput: req.LearnerInput,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) ResponseHistory(c *gin.Context) {
	user := currentUser(c)

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		limit = parsed
	}

	history, err := s.responseSvc.History(c.Request.Context(), int64(user.ID), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"responses": history,
		"count":     len(history),
	})
}

func (s *Server) StudyTips(c *gin.Context) {
	user := currentUser(c)

	weak, err := s.progressSvc.WeakTopics(c.Request.Context(), int64(user.ID))
	if err != nil {
		s.log.Warn("weak topic lookup failed", zap.Error(err))
		weak = nil
	}

	tips := s.aiSvc.GenerateStudyTips(c.Request.Context(), weak)

	c.JSON(http.StatusOK, gin.H{
		"weak_topics": weak,
		"tips":        tips,
	})
}
