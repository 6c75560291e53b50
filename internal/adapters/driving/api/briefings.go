package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
)

// generateRequest is the optional body of POST /api/briefings/generate.
type generateRequest struct {
	Providers []string `json:"providers"`
	Topics    []string `json:"topics"`
}

const (
	defaultHistoryLimit = 7
	maxHistoryLimit     = 90
)

// generate runs the pipeline and streams its progress. The response status
// is committed before the run starts; failures arrive as an error event.
func (s *Server) generate(c *gin.Context) {
	var body generateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
			return
		}
	}
	providers, err := domain.ParseProviders(body.Providers)
	if err != nil {
		abortWithError(c, err)
		return
	}

	sink := newSSESink(c.Writer, c.Request.Context().Done(), s.cfg.Heartbeat)
	defer sink.Close()

	// Errors are reported on the stream by the pipeline itself.
	_, _ = s.deps.Pipeline.Generate(c.Request.Context(), driving.GenerateRequest{
		UserID:      userID(c),
		Providers:   providers,
		TrendTopics: body.Topics,
	}, sink)
}

func (s *Server) today(c *gin.Context) {
	rec, err := s.deps.Briefings.Today(c.Request.Context(), userID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	// A missing briefing is not an error: the body is a JSON null.
	c.JSON(http.StatusOK, rec)
}

func (s *Server) saveEdit(c *gin.Context) {
	var edit domain.BriefingEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	rec, err := s.deps.Briefings.SaveEdit(c.Request.Context(), userID(c), edit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) history(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	recs, err := s.deps.Briefings.History(c.Request.Context(), userID(c), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if recs == nil {
		recs = []domain.BriefingRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"briefings": recs})
}

func (s *Server) refreshInterests(c *gin.Context) {
	if s.deps.Interests == nil {
		c.JSON(http.StatusNotImplemented, errorResponse{Error: "interest synthesis is not configured"})
		return
	}
	profile, err := s.deps.Interests.Refresh(c.Request.Context(), userID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.deps.Settings.Get(c.Request.Context(), userID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) setProviders(c *gin.Context) {
	var body struct {
		Providers []string `json:"providers"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	providers, err := domain.ParseProviders(body.Providers)
	if err != nil {
		abortWithError(c, err)
		return
	}
	settings, err := s.deps.Settings.SetProviders(c.Request.Context(), userID(c), providers)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
