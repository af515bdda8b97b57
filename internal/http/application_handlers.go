package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aslanbek/grainflow/internal/service"
)

type createApplicationRequest struct {
	ContractID  string          `json:"contract_id" binding:"required"`
	Name        string          `json:"name"`
	Volume      decimal.Decimal `json:"volume"`
	PricePerTon decimal.Decimal `json:"price_per_ton"`
	Culture     string          `json:"culture"`
	Comment     string          `json:"comment"`
}

type updateApplicationRequest struct {
	Name        string          `json:"name"`
	Volume      decimal.Decimal `json:"volume"`
	PricePerTon decimal.Decimal `json:"price_per_ton"`
	Culture     string          `json:"culture"`
	Comment     string          `json:"comment"`
}

func (h *Handler) createApplication(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contractID, err := uuid.Parse(strings.TrimSpace(req.ContractID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract_id"})
		return
	}

	application, err := h.applications.Create(c.Request.Context(), service.CreateApplicationInput{
		ContractID:  contractID,
		Name:        req.Name,
		Volume:      req.Volume,
		PricePerTon: req.PricePerTon,
		Culture:     req.Culture,
		Comment:     req.Comment,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, application)
}

func (h *Handler) updateApplication(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	application, err := h.applications.Update(c.Request.Context(), id, service.UpdateApplicationInput{
		Name:        req.Name,
		Volume:      req.Volume,
		PricePerTon: req.PricePerTon,
		Culture:     req.Culture,
		Comment:     req.Comment,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, application)
}

func (h *Handler) getApplication(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	application, err := h.applications.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, application)
}

func (h *Handler) deleteApplication(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.applications.Delete(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
