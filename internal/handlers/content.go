// internal/handlers/content.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/i18n"
	"github.com/javajoker/imi-campaigns/internal/services"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

const maxMediaFiles = 10

type ContentHandler struct {
	contentService *services.ContentService
}

func NewContentHandler(contentService *services.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// POST /v1/contents
// Multipart form: campaign_id, collaboration_id, deliverable_id,
// product_id, platform, caption and one or more "media" files.
func (h *ContentHandler) SubmitContent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form", err.Error())
		return
	}

	// Parse form fields
	req := services.SubmitContentRequest{
		Platform: c.PostForm("platform"),
		Caption:  c.PostForm("caption"),
	}
	if req.CampaignID, ok = formID(c, "campaign_id"); !ok {
		return
	}
	for field, target := range map[string]**uuid.UUID{
		"collaboration_id": &req.CollaborationID,
		"deliverable_id":   &req.DeliverableID,
		"product_id":       &req.ProductID,
	} {
		id, ok := formID(c, field)
		if !ok {
			return
		}
		if id != uuid.Nil {
			*target = &id
		}
	}

	headers := form.File["media"]
	if len(headers) > maxMediaFiles {
		utils.BadRequestResponse(c, "Too many files", gin.H{"max": maxMediaFiles})
		return
	}

	files := make([]services.MediaFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			utils.BadRequestResponse(c, "Unreadable file "+fh.Filename, nil)
			return
		}
		defer f.Close()
		files = append(files, services.MediaFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	content, err := h.contentService.SubmitContent(c.Request.Context(), actor, &req, files)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": message(c, i18n.KeyContentSubmitted),
		"content": content,
	})
}

// formID reads a uuid form field. A missing field yields uuid.Nil and is
// left to service validation.
func formID(c *gin.Context, field string) (uuid.UUID, bool) {
	raw := c.PostForm(field)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid "+field, nil)
		return uuid.Nil, false
	}
	return id, true
}

// GET /v1/contents/:id
func (h *ContentHandler) GetContent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "content")
	if !ok {
		return
	}

	content, err := h.contentService.GetContent(c.Request.Context(), actor, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, content)
}

// PUT /v1/contents/:id/review
func (h *ContentHandler) ReviewContent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "content")
	if !ok {
		return
	}

	var req services.ReviewContentRequest
	if !bindJSON(c, &req) {
		return
	}

	content, err := h.contentService.ReviewContent(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeyContentReviewed),
		"content": content,
	})
}

// PUT /v1/contents/:id/publish
func (h *ContentHandler) PublishContent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "content")
	if !ok {
		return
	}

	var req services.PublishContentRequest
	if !bindJSON(c, &req) {
		return
	}

	content, err := h.contentService.PublishContent(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeyContentPublished),
		"content": content,
	})
}

// POST /v1/contents/:id/performance
func (h *ContentHandler) RecordPerformance(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "content")
	if !ok {
		return
	}

	var req services.RecordPerformanceRequest
	if !bindJSON(c, &req) {
		return
	}

	content, err := h.contentService.RecordPerformance(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, content)
}
