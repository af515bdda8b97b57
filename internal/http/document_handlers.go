package http

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aslanbek/grainflow/internal/document"
	"github.com/aslanbek/grainflow/internal/service"
)

type attachDocumentRequest struct {
	Name   string `json:"name"`
	Number string `json:"number" binding:"required"`
	Date   string `json:"date"`
}

func (h *Handler) attachDocument(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	owner, ok := parseOwner(c)
	if !ok {
		return
	}
	var req attachDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.AttachPendingInput{
		Owner:     owner,
		Name:      req.Name,
		Number:    req.Number,
		Principal: principal,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		input.Date = date
	}

	doc, err := h.documents.AttachPending(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) uploadDocuments(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	owner, ok := parseOwner(c)
	if !ok {
		return
	}

	entries, closeFiles, err := parseUploadEntries(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeFiles()

	descriptors, err := h.documents.UploadBatch(c.Request.Context(), service.UploadBatchInput{
		Owner:     owner,
		Entries:   entries,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, descriptors)
}

func (h *Handler) listDocuments(c *gin.Context) {
	owner, ok := parseOwner(c)
	if !ok {
		return
	}
	docs, err := h.documents.ListByOwner(c.Request.Context(), owner)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) deleteDocument(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	owner, ok := parseOwner(c)
	if !ok {
		return
	}
	err := h.documents.Delete(c.Request.Context(), service.DeleteDocumentInput{
		Owner:     owner,
		Number:    c.Param("number"),
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) clearDocumentFile(c *gin.Context) {
	principal, ok := principalOr401(c)
	if !ok {
		return
	}
	owner, ok := parseOwner(c)
	if !ok {
		return
	}
	doc, err := h.documents.ClearPendingFile(c.Request.Context(), service.ClearPendingFileInput{
		Owner:     owner,
		Number:    c.Param("number"),
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) getFile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	rc, err := h.documents.OpenFile(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

// parseUploadEntries читает multipart-поля files_info и files. Порядок
// files_info обязан совпадать с порядком files; каждая запись может нести
// correlation_id своей строки документа.
func parseUploadEntries(c *gin.Context) ([]service.UploadEntry, func(), error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return nil, func() {}, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, err
	}

	infos, err := document.ParseFilesInfo([]byte(c.PostForm("files_info")))
	if err != nil {
		return nil, func() {}, err
	}

	files := form.File["files"]
	if len(files) != len(infos) {
		return nil, func() {}, service.ErrInvalidInput
	}

	opened := make([]multipart.File, 0, len(files))
	closeFiles := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	entries := make([]service.UploadEntry, 0, len(files))
	for i, header := range files {
		f, err := header.Open()
		if err != nil {
			closeFiles()
			return nil, func() {}, err
		}
		opened = append(opened, f)

		info := infos[i]
		date, err := info.ParseDate()
		if err != nil {
			closeFiles()
			return nil, func() {}, err
		}
		correlationID, err := info.ParseCorrelationID()
		if err != nil {
			closeFiles()
			return nil, func() {}, err
		}
		entries = append(entries, service.UploadEntry{
			Name:          info.Name,
			Number:        info.Number,
			Date:          date,
			CorrelationID: correlationID,
			File:          f,
		})
	}
	return entries, closeFiles, nil
}
