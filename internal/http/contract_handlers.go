package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/aslanbek/grainflow/internal/service"
)

type contractRequest struct {
	Number      string          `json:"number" binding:"required"`
	TotalVolume decimal.Decimal `json:"total_volume"`
	Currency    string          `json:"currency" binding:"required"`
	Crop        string          `json:"crop"`
	Elevator    string          `json:"elevator"`
	Station     string          `json:"station"`
	Sender      string          `json:"sender"`
	Receiver    string          `json:"receiver"`
}

func (h *Handler) createContract(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.contracts.Create(c.Request.Context(), service.ContractInput{
		Number:      req.Number,
		TotalVolume: req.TotalVolume,
		Currency:    req.Currency,
		Crop:        req.Crop,
		Elevator:    req.Elevator,
		Station:     req.Station,
		Sender:      req.Sender,
		Receiver:    req.Receiver,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

func (h *Handler) updateContract(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.contracts.Update(c.Request.Context(), id, service.ContractInput{
		Number:      req.Number,
		TotalVolume: req.TotalVolume,
		Currency:    req.Currency,
		Crop:        req.Crop,
		Elevator:    req.Elevator,
		Station:     req.Station,
		Sender:      req.Sender,
		Receiver:    req.Receiver,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) getContract(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := h.contracts.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":               view.Contract.ID,
		"number":           view.Contract.Number,
		"total_volume":     view.Contract.TotalVolume,
		"available_volume": view.AvailableVolume,
		"currency":         view.Contract.Currency,
		"crop":             view.Contract.Crop,
		"elevator":         view.Contract.Elevator,
		"station":          view.Contract.Station,
		"sender":           view.Contract.Sender,
		"receiver":         view.Contract.Receiver,
		"applications":     view.Contract.Applications,
	})
}

func (h *Handler) listContracts(c *gin.Context) {
	contracts, err := h.contracts.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contracts)
}

func (h *Handler) deleteContract(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.contracts.Delete(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
