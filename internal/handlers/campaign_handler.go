package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coldreach/outreach-backend/internal/models"
	"github.com/coldreach/outreach-backend/internal/services"
	"github.com/coldreach/outreach-backend/internal/utils"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
}

func NewCampaignHandler(campaignService *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// mapCampaignError translates service errors to HTTP responses
func mapCampaignError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrCampaignNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotDraft),
		errors.Is(err, services.ErrNoTemplates),
		errors.Is(err, services.ErrNoLeads):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "cannot"):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "unsupported"):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "details": err.Error()})
	}
}

// CreateCampaign godoc
// @Summary Create a new campaign
// @Description Create a draft campaign for the authenticated user
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCampaignRequest true "Create campaign request"
// @Success 201 {object} models.CampaignResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	campaign, err := h.campaignService.CreateCampaign(userID, &req)
	if err != nil {
		mapCampaignError(c, err, "Failed to create campaign")
		return
	}

	c.JSON(http.StatusCreated, services.ToCampaignResponse(campaign))
}

// ListCampaigns godoc
// @Summary List campaigns
// @Description List the authenticated user's campaigns, newest first
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {array} models.CampaignResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	params := utils.ParsePagination(c)

	campaigns, err := h.campaignService.ListCampaigns(userID, utils.CalculateOffset(params.Page, params.PageSize), params.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list campaigns", "details": err.Error()})
		return
	}

	responses := make([]models.CampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		responses = append(responses, services.ToCampaignResponse(campaign))
	}
	c.JSON(http.StatusOK, responses)
}

// GetCampaign godoc
// @Summary Get campaign with statistics
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.CampaignStatsResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	stats, err := h.campaignService.GetCampaignStats(userID, campaignID)
	if err != nil {
		mapCampaignError(c, err, "Failed to get campaign")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// UpdateCampaign godoc
// @Summary Update a draft campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param request body models.UpdateCampaignRequest true "Update campaign request"
// @Success 200 {object} models.CampaignResponse
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [patch]
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	var req models.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	campaign, err := h.campaignService.UpdateCampaign(userID, campaignID, &req)
	if err != nil {
		mapCampaignError(c, err, "Failed to update campaign")
		return
	}

	c.JSON(http.StatusOK, services.ToCampaignResponse(campaign))
}

// DeleteCampaign godoc
// @Summary Delete a draft campaign
// @Tags campaigns
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [delete]
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	if err := h.campaignService.DeleteCampaign(userID, campaignID); err != nil {
		mapCampaignError(c, err, "Failed to delete campaign")
		return
	}

	c.Status(http.StatusNoContent)
}

// DuplicateCampaign godoc
// @Summary Duplicate a campaign
// @Description Copy a campaign and its templates into a fresh draft
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param request body models.DuplicateCampaignRequest false "Duplicate request"
// @Success 201 {object} models.CampaignResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/duplicate [post]
func (h *CampaignHandler) DuplicateCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	var req models.DuplicateCampaignRequest
	_ = c.ShouldBindJSON(&req)

	campaign, err := h.campaignService.DuplicateCampaign(userID, campaignID, req.Name)
	if err != nil {
		mapCampaignError(c, err, "Failed to duplicate campaign")
		return
	}

	c.JSON(http.StatusCreated, services.ToCampaignResponse(campaign))
}

// LaunchCampaign godoc
// @Summary Launch a campaign
// @Description Activate a draft campaign and schedule step-1 emails for all leads
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param request body models.LaunchCampaignRequest false "Launch request"
// @Success 200 {object} models.CampaignResponse
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/launch [post]
func (h *CampaignHandler) LaunchCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	var req models.LaunchCampaignRequest
	_ = c.ShouldBindJSON(&req)

	campaign, err := h.campaignService.LaunchCampaign(userID, campaignID, req.StartTime)
	if err != nil {
		mapCampaignError(c, err, "Failed to launch campaign")
		return
	}

	c.JSON(http.StatusOK, services.ToCampaignResponse(campaign))
}

// PauseCampaign godoc
// @Summary Pause an active campaign
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.CampaignResponse
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/pause [post]
func (h *CampaignHandler) PauseCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	campaign, err := h.campaignService.PauseCampaign(userID, campaignID)
	if err != nil {
		mapCampaignError(c, err, "Failed to pause campaign")
		return
	}

	c.JSON(http.StatusOK, services.ToCampaignResponse(campaign))
}

// ResumeCampaign godoc
// @Summary Resume a paused campaign
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.CampaignResponse
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/resume [post]
func (h *CampaignHandler) ResumeCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	campaign, err := h.campaignService.ResumeCampaign(userID, campaignID)
	if err != nil {
		mapCampaignError(c, err, "Failed to resume campaign")
		return
	}

	c.JSON(http.StatusOK, services.ToCampaignResponse(campaign))
}
