package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aslanbek/grainflow/internal/model"
	"github.com/aslanbek/grainflow/internal/service"
)

func (h *Handler) createWagon(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}

	input, ok := parseWagonForm(c)
	if !ok {
		return
	}
	input.Principal = principal

	entries, closeFiles, err := parseUploadEntries(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeFiles()

	wagon, descriptors, err := h.wagons.Create(c.Request.Context(), service.CreateWagonInput{
		WagonInput: input,
		Documents:  entries,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"wagon":     wagon,
		"documents": descriptors,
	})
}

func (h *Handler) updateWagon(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	input, ok := parseWagonForm(c)
	if !ok {
		return
	}
	input.Principal = principal

	wagon, err := h.wagons.Update(c.Request.Context(), id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wagon)
}

type wagonStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateWagonStatus(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req wagonStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.wagons.UpdateStatus(c.Request.Context(), id, model.WagonStatus(req.Status), principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type wagonDepartureRequest struct {
	Date string `json:"date" binding:"required"`
}

func (h *Handler) recordWagonDeparture(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req wagonDepartureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	if err := h.wagons.RecordDeparture(c.Request.Context(), id, date, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteWagon(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.wagons.Delete(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getWagon(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	wagon, err := h.wagons.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wagon)
}

func (h *Handler) wagonSummary(c *gin.Context) {
	report, err := h.wagons.Summary(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	groups := make([]gin.H, 0, len(report.Groups))
	for _, group := range report.Groups {
		groups = append(groups, gin.H{
			"application_id":         group.ApplicationID,
			"application_name":       group.ApplicationName,
			"unresolved":             group.Unresolved,
			"wagon_count":            group.WagonCount,
			"total_capacity":         group.TotalCapacity,
			"total_real_weight":      group.TotalRealWeight,
			"utilization_percentage": group.UtilizationPercentage,
			"wagons":                 group.Wagons,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"generated_at":      report.GeneratedAt,
		"total_wagons":      report.TotalWagons,
		"total_capacity":    report.TotalCapacity,
		"total_real_weight": report.TotalRealWeight,
		"groups":            groups,
	})
}

func (h *Handler) wagonManifest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.reports.WagonManifestPDF(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) exportFulfillment(c *gin.Context) {
	result, err := h.reports.ExportFulfillment(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

// parseWagonForm читает поля вагона из multipart/urlencoded формы.
func parseWagonForm(c *gin.Context) (service.WagonInput, bool) {
	var input service.WagonInput

	input.Number = strings.TrimSpace(c.PostForm("number"))
	input.Owner = strings.TrimSpace(c.PostForm("owner"))
	input.Status = model.WagonStatus(strings.TrimSpace(c.PostForm("status")))

	capacityRaw := strings.TrimSpace(c.PostForm("capacity"))
	if capacityRaw != "" {
		capacity, err := strconv.ParseInt(capacityRaw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid capacity"})
			return input, false
		}
		input.Capacity = capacity
	}

	if raw := strings.TrimSpace(c.PostForm("real_weight")); raw != "" {
		weight, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid real_weight"})
			return input, false
		}
		input.RealWeight = &weight
	}

	if raw := strings.TrimSpace(c.PostForm("application_id")); raw != "" {
		applicationID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application_id"})
			return input, false
		}
		input.ApplicationID = &applicationID
	}

	if raw := strings.TrimSpace(c.PostForm("date_of_departure")); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_of_departure"})
			return input, false
		}
		input.DateOfDeparture = &date
	}

	return input, true
}
