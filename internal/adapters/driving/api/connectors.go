package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/logger"
)

func (s *Server) connectorStatus(c *gin.Context) {
	statuses, err := s.deps.Connectors.Status(c.Request.Context(), userID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connectors": statuses})
}

// connectorAuthorize returns the consent URL, or redirects to it when
// called with ?redirect=true.
func (s *Server) connectorAuthorize(c *gin.Context) {
	provider, err := domain.ParseProvider(c.Param("provider"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	url, err := s.deps.Connectors.AuthorizationURL(c.Request.Context(), userID(c), provider)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if c.Query("redirect") == "true" {
		c.Redirect(http.StatusFound, url)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": provider, "url": url})
}

func (s *Server) connectorCallback(c *gin.Context) {
	provider, err := domain.ParseProvider(c.Param("provider"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if oauthErr := c.Query("error"); oauthErr != "" {
		logger.Info("%s authorization declined: %s", provider, oauthErr)
		c.JSON(http.StatusBadRequest, errorResponse{Error: "authorization was not granted: " + oauthErr, Code: "access_denied"})
		return
	}

	cred, err := s.deps.Connectors.Connect(c.Request.Context(), provider, c.Query("code"), c.Query("state"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.ConnectionStatus{
		Provider:  provider,
		State:     domain.ConnectionConnected,
		ExpiresAt: cred.ExpiresAt,
		Scopes:    cred.Scopes,
	})
}

func (s *Server) connectorDisconnect(c *gin.Context) {
	provider, err := domain.ParseProvider(c.Param("provider"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := s.deps.Connectors.Disconnect(c.Request.Context(), userID(c), provider); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
