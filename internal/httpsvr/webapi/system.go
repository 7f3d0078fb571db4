package webapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mediascribe-server-go/internal/platform/observability"
)

func (s *Service) handleSystem(c *gin.Context) {
	RespondSuccess(c, http.StatusOK, observability.Collect(), "")
}
