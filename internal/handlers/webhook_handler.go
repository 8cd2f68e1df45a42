package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/coldreach/outreach-backend/internal/services"
)

// WebhookHandler receives inbound-email callbacks from the email provider.
// Outbound emails carry a plus-addressed Reply-To ("reply+<leadID>@domain"),
// so the provider's MailboxHash field identifies the lead that replied.
type WebhookHandler struct {
	leadService *services.LeadService
}

func NewWebhookHandler(leadService *services.LeadService) *WebhookHandler {
	return &WebhookHandler{leadService: leadService}
}

// InboundEmailPayload is the subset of the provider's inbound webhook body
// we care about
type InboundEmailPayload struct {
	From        string `json:"From"`
	MailboxHash string `json:"MailboxHash"`
	Subject     string `json:"Subject"`
}

// HandleInboundEmail godoc
// @Summary Inbound email webhook
// @Description Marks the lead identified by the MailboxHash as replied and cancels its pending follow-ups
// @Tags webhooks
// @Accept json
// @Produce json
// @Param request body handlers.InboundEmailPayload true "Inbound email payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /webhooks/inbound-email [post]
func (h *WebhookHandler) HandleInboundEmail(c *gin.Context) {
	var payload InboundEmailPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload", "details": err.Error()})
		return
	}

	leadID := payload.MailboxHash
	if _, err := uuid.Parse(leadID); err != nil {
		// Not one of ours. Acknowledge so the provider stops retrying.
		logrus.WithField("mailbox_hash", leadID).Debug("Ignoring inbound email without a lead hash")
		c.JSON(http.StatusOK, gin.H{"processed": false})
		return
	}

	if err := h.leadService.MarkReplied(leadID); err != nil {
		if errors.Is(err, services.ErrLeadNotFound) {
			c.JSON(http.StatusOK, gin.H{"processed": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process reply", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"processed": true})
}
