package handlers

import (
	"context"
	"strings"

	"github.com/dhima/version-watch/internal/api/response"
	"github.com/dhima/version-watch/internal/installed"
	"github.com/dhima/version-watch/internal/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PackageDiscoverer lists installed packages matching keywords.
type PackageDiscoverer interface {
	Discover(ctx context.Context, keywords []string) ([]installed.Package, error)
}

// InstalledHandler exposes installed-package discovery.
type InstalledHandler struct {
	logger     logging.Logger
	discoverer PackageDiscoverer
}

// NewInstalledHandler creates a new installed-package handler.
func NewInstalledHandler(logger logging.Logger, discoverer PackageDiscoverer) *InstalledHandler {
	return &InstalledHandler{
		logger:     logger.With(zap.String("handler", "installed")),
		discoverer: discoverer,
	}
}

// Discover godoc
// @Summary Discover related installed packages
// @Description Lists installed packages whose identifier contains any keyword. Defaults to pokemon, niantic, pgsharp and pogo.
// @Tags Installed
// @Produce json
// @Param keyword query []string false "Keyword to match (repeatable or comma-separated)" collectionFormat(multi)
// @Success 200 {object} response.SuccessResponse{data=[]installed.Package}
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/installed [get]
func (h *InstalledHandler) Discover(c *gin.Context) {
	var keywords []string
	for _, raw := range c.QueryArray("keyword") {
		for _, kw := range strings.Split(raw, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
	}

	pkgs, err := h.discoverer.Discover(c.Request.Context(), keywords)
	if err != nil {
		h.logger.Error("package discovery failed",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.InternalServerError(c, "package discovery failed")
		return
	}
	response.OK(c, pkgs)
}
