package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aslanbek/grainflow/internal/http/middleware"
	"github.com/aslanbek/grainflow/internal/ledger"
	"github.com/aslanbek/grainflow/internal/model"
	"github.com/aslanbek/grainflow/internal/service"
)

type Handler struct {
	contracts    *service.ContractService
	applications *service.ApplicationService
	wagons       *service.WagonService
	documents    *service.DocumentService
	reports      *service.ReportService
	log          zerolog.Logger
}

func NewHandler(
	contracts *service.ContractService,
	applications *service.ApplicationService,
	wagons *service.WagonService,
	documents *service.DocumentService,
	reports *service.ReportService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		contracts:    contracts,
		applications: applications,
		wagons:       wagons,
		documents:    documents,
		reports:      reports,
		log:          log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.GET("/contracts", h.listContracts)
	protected.POST("/contracts", h.createContract)
	protected.GET("/contracts/:id", h.getContract)
	protected.PUT("/contracts/:id", h.updateContract)
	protected.DELETE("/contracts/:id", h.deleteContract)

	protected.POST("/applications", h.createApplication)
	protected.GET("/applications/:id", h.getApplication)
	protected.PUT("/applications/:id", h.updateApplication)
	protected.DELETE("/applications/:id", h.deleteApplication)

	protected.POST("/wagons", h.createWagon)
	protected.GET("/wagons/summary", h.wagonSummary)
	protected.GET("/wagons/:id", h.getWagon)
	protected.PUT("/wagons/:id", h.updateWagon)
	protected.PATCH("/wagons/:id/status", h.updateWagonStatus)
	protected.PATCH("/wagons/:id/departure", h.recordWagonDeparture)
	protected.DELETE("/wagons/:id", h.deleteWagon)
	protected.POST("/wagons/:id/manifest", h.wagonManifest)

	protected.GET("/owners/:ownerType/:ownerID/documents", h.listDocuments)
	protected.POST("/owners/:ownerType/:ownerID/documents", h.attachDocument)
	protected.POST("/owners/:ownerType/:ownerID/documents/upload", h.uploadDocuments)
	protected.DELETE("/owners/:ownerType/:ownerID/documents/:number", h.deleteDocument)
	protected.POST("/owners/:ownerType/:ownerID/documents/:number/clear-file", h.clearDocumentFile)

	protected.GET("/files/:id", h.getFile)

	protected.POST("/reports/fulfillment/export", h.exportFulfillment)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var volumeErr *ledger.VolumeExceededError
	var totalErr *ledger.TotalBelowAllocatedError
	switch {
	case errors.As(err, &volumeErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       "volume exceeds contract limit",
			"max_allowed": volumeErr.MaxAllowed,
		})
	case errors.As(err, &totalErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     "total volume is below the allocated volume",
			"allocated": totalErr.Allocated,
		})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrContractInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateDocumentNumber):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAmbiguousDeletion):
		h.log.Error().Err(err).Msg("document uniqueness invariant violated")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUploadFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func principalOr401(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
	}
	return principal, ok
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(param)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func parseOwner(c *gin.Context) (service.Owner, bool) {
	ownerType, ok := model.ParseOwnerType(c.Param("ownerType"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid owner type"})
		return service.Owner{}, false
	}
	ownerID, ok := parseID(c, "ownerID")
	if !ok {
		return service.Owner{}, false
	}
	return service.Owner{Type: ownerType, ID: ownerID}, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
