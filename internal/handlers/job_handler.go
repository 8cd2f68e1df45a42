package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coldreach/outreach-backend/internal/models"
	"github.com/coldreach/outreach-backend/internal/services"
	"github.com/coldreach/outreach-backend/internal/utils"
)

// JobHandler exposes the read-only delivery queue views plus the manual
// retry controls.
type JobHandler struct {
	jobService      *services.JobService
	campaignService *services.CampaignService
}

func NewJobHandler(jobService *services.JobService, campaignService *services.CampaignService) *JobHandler {
	return &JobHandler{jobService: jobService, campaignService: campaignService}
}

// ownedCampaign enforces campaign ownership before exposing job data
func (h *JobHandler) ownedCampaign(c *gin.Context) (string, bool) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	if _, err := h.campaignService.GetCampaign(userID, campaignID); err != nil {
		mapCampaignError(c, err, "Failed to get campaign")
		return "", false
	}
	return campaignID, true
}

// ListJobs godoc
// @Summary List a campaign's email jobs
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param status query string false "Filter by job status"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {array} models.EmailJobResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	campaignID, ok := h.ownedCampaign(c)
	if !ok {
		return
	}
	params := utils.ParsePagination(c)

	var status *models.JobStatus
	if raw := c.Query("status"); raw != "" {
		s := models.JobStatus(raw)
		status = &s
	}

	jobs, err := h.jobService.GetJobsForCampaign(campaignID, status, utils.CalculateOffset(params.Page, params.PageSize), params.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toJobResponses(jobs))
}

// ListFailedJobs godoc
// @Summary List permanently failed jobs
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {array} models.EmailJobResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/jobs/failed [get]
func (h *JobHandler) ListFailedJobs(c *gin.Context) {
	campaignID, ok := h.ownedCampaign(c)
	if !ok {
		return
	}

	jobs, err := h.jobService.GetFailedJobs(campaignID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list failed jobs", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toJobResponses(jobs))
}

// GetStepSummary godoc
// @Summary Per-step delivery summary for a campaign
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {array} models.StepSummary
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/jobs/summary [get]
func (h *JobHandler) GetStepSummary(c *gin.Context) {
	campaignID, ok := h.ownedCampaign(c)
	if !ok {
		return
	}

	summary, err := h.jobService.GetStepSummary(campaignID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to summarize jobs", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RetryFailedJob godoc
// @Summary Reset one failed job back into the queue
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param jobId path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/jobs/{jobId}/retry [post]
func (h *JobHandler) RetryFailedJob(c *gin.Context) {
	if _, ok := h.ownedCampaign(c); !ok {
		return
	}
	jobID := c.Param("jobId")

	reset, err := h.jobService.RetryFailedJob(jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retry job", "details": err.Error()})
		return
	}
	if !reset {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found or not in failed status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"retried": true})
}

// RetryAllFailedJobs godoc
// @Summary Reset every failed job of a campaign back into the queue
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/jobs/retry [post]
func (h *JobHandler) RetryAllFailedJobs(c *gin.Context) {
	campaignID, ok := h.ownedCampaign(c)
	if !ok {
		return
	}

	count, err := h.jobService.RetryAllFailedJobs(campaignID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retry jobs", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"retried": count})
}

func toJobResponses(jobs []*models.EmailJob) []models.EmailJobResponse {
	responses := make([]models.EmailJobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, models.EmailJobResponse{
			ID:          job.ID,
			CampaignID:  job.CampaignID,
			LeadID:      job.LeadID,
			StepNumber:  job.StepNumber,
			ScheduledAt: job.ScheduledAt,
			Status:      job.Status,
			Attempts:    job.Attempts,
			LastError:   job.LastError,
			SentAt:      job.SentAt,
			MessageID:   job.MessageID,
			CreatedAt:   job.CreatedAt.Format(time.RFC3339),
			UpdatedAt:   job.UpdatedAt.Format(time.RFC3339),
		})
	}
	return responses
}
