package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultTimelineDays = 30

func (s *Server) Timeline(c *gin.Context) {
	user := currentUser(c)

	days := defaultTimelineDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		days = parsed
	}

	timeline, err := s.analyticsSvc.Timeline(c.Request.Context(), int64(user.ID), days)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, timeline)
}

func (s *Server) TopicComparison(c *gin.Context) {
	user := currentUser(c)

	comparison, err := s.analyticsSvc.TopicComparison(c.Request.Context(), int64(user.ID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

func (s *Server) Streak(c *gin.Context) {
	user := currentUser(c)

	streak, err := s.analyticsSvc.Streak(c.Request.Context(), int64(user.ID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, streak)
}

func (s *Server) WeeklySummary(c *gin.Context) {
	user := currentUser(c)

	summary, err := s.analyticsSvc.WeeklySummary(c.Request.Context(), int64(user.ID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) Heatmap(c *gin.Context) {
	user := currentUser(c)

	heatmap, err := s.analyticsSvc.Heatmap(c.Request.Context(), int64(user.ID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, heatmap)
}

func (s *Server) TimePatterns(c *gin.Context) {
	user := currentUser(c)

	patterns, err := s.analyticsSvc.TimePatterns(c.Request.Context(), int64(user.ID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, patterns)
}
