package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coldreach/outreach-backend/internal/models"
	"github.com/coldreach/outreach-backend/internal/services"
)

type TemplateHandler struct {
	templateService *services.TemplateService
}

func NewTemplateHandler(templateService *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

func mapTemplateError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrCampaignNotFound),
		errors.Is(err, services.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotDraft),
		strings.Contains(err.Error(), "already has"):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "step number"),
		strings.Contains(err.Error(), "delay"),
		strings.Contains(err.Error(), "step 1"):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "details": err.Error()})
	}
}

// CreateTemplate godoc
// @Summary Add a step template to a draft campaign
// @Tags templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param request body models.CreateTemplateRequest true "Create template request"
// @Success 201 {object} models.TemplateResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/templates [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	var req models.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	template, err := h.templateService.CreateTemplate(userID, campaignID, &req)
	if err != nil {
		mapTemplateError(c, err, "Failed to create template")
		return
	}

	c.JSON(http.StatusCreated, toTemplateResponse(template))
}

// ListTemplates godoc
// @Summary List a campaign's step templates
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {array} models.TemplateResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	templates, err := h.templateService.ListTemplates(userID, campaignID)
	if err != nil {
		mapTemplateError(c, err, "Failed to list templates")
		return
	}

	responses := make([]models.TemplateResponse, 0, len(templates))
	for _, template := range templates {
		responses = append(responses, toTemplateResponse(template))
	}
	c.JSON(http.StatusOK, responses)
}

// UpdateTemplate godoc
// @Summary Update a step template on a draft campaign
// @Tags templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param templateId path string true "Template ID"
// @Param request body models.UpdateTemplateRequest true "Update template request"
// @Success 200 {object} models.TemplateResponse
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/templates/{templateId} [patch]
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")
	templateID := c.Param("templateId")

	var req models.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	template, err := h.templateService.UpdateTemplate(userID, campaignID, templateID, &req)
	if err != nil {
		mapTemplateError(c, err, "Failed to update template")
		return
	}

	c.JSON(http.StatusOK, toTemplateResponse(template))
}

// DeleteTemplate godoc
// @Summary Remove a step template from a draft campaign
// @Tags templates
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param templateId path string true "Template ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/templates/{templateId} [delete]
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")
	templateID := c.Param("templateId")

	if err := h.templateService.DeleteTemplate(userID, campaignID, templateID); err != nil {
		mapTemplateError(c, err, "Failed to delete template")
		return
	}

	c.Status(http.StatusNoContent)
}

func toTemplateResponse(template *models.EmailTemplate) models.TemplateResponse {
	return models.TemplateResponse{
		ID:           template.ID,
		CampaignID:   template.CampaignID,
		StepNumber:   template.StepNumber,
		Subject:      template.Subject,
		Body:         template.Body,
		DelayMinutes: template.DelayMinutes,
		CreatedAt:    template.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    template.UpdatedAt.Format(time.RFC3339),
	}
}
