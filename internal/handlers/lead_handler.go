package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coldreach/outreach-backend/internal/models"
	"github.com/coldreach/outreach-backend/internal/services"
	"github.com/coldreach/outreach-backend/internal/utils"
)

type LeadHandler struct {
	leadService *services.LeadService
}

func NewLeadHandler(leadService *services.LeadService) *LeadHandler {
	return &LeadHandler{leadService: leadService}
}

func mapLeadError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrCampaignNotFound),
		errors.Is(err, services.ErrLeadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotDraft):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "already exists"):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "invalid email"),
		strings.Contains(err.Error(), "must have"),
		strings.Contains(err.Error(), "exceeds maximum"):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "details": err.Error()})
	}
}

// CreateLead godoc
// @Summary Add a lead to a draft campaign
// @Tags leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param request body models.CreateLeadRequest true "Create lead request"
// @Success 201 {object} models.LeadResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/leads [post]
func (h *LeadHandler) CreateLead(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	var req models.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	lead, err := h.leadService.CreateLead(userID, campaignID, &req)
	if err != nil {
		mapLeadError(c, err, "Failed to create lead")
		return
	}

	c.JSON(http.StatusCreated, services.ToLeadResponse(lead))
}

// ListLeads godoc
// @Summary List a campaign's leads
// @Tags leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param status query string false "Filter by lead status"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {array} models.LeadResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/leads [get]
func (h *LeadHandler) ListLeads(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")
	params := utils.ParsePagination(c)

	var status *models.LeadStatus
	if raw := c.Query("status"); raw != "" {
		s := models.LeadStatus(raw)
		status = &s
	}

	leads, err := h.leadService.ListLeads(userID, campaignID, status, utils.CalculateOffset(params.Page, params.PageSize), params.PageSize)
	if err != nil {
		mapLeadError(c, err, "Failed to list leads")
		return
	}

	responses := make([]models.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		responses = append(responses, services.ToLeadResponse(lead))
	}
	c.JSON(http.StatusOK, responses)
}

// DeleteLead godoc
// @Summary Remove a lead from a draft campaign
// @Tags leads
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param leadId path string true "Lead ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/leads/{leadId} [delete]
func (h *LeadHandler) DeleteLead(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")
	leadID := c.Param("leadId")

	if err := h.leadService.DeleteLead(userID, campaignID, leadID); err != nil {
		mapLeadError(c, err, "Failed to delete lead")
		return
	}

	c.Status(http.StatusNoContent)
}

// ImportLeads godoc
// @Summary Bulk-import leads from CSV or XLSX
// @Description Upload a file with email, first_name, company columns. Bad rows are reported, not fatal.
// @Tags leads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} models.LeadImportResult
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/leads/import [post]
func (h *LeadHandler) ImportLeads(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload", "details": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open upload", "details": err.Error()})
		return
	}
	defer file.Close()

	var result *models.LeadImportResult
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".csv":
		result, err = h.leadService.ImportCSV(userID, campaignID, file)
	case ".xlsx":
		result, err = h.leadService.ImportXLSX(userID, campaignID, file)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type, use .csv or .xlsx"})
		return
	}
	if err != nil {
		mapLeadError(c, err, "Failed to import leads")
		return
	}

	c.JSON(http.StatusOK, result)
}
