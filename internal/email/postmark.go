package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coldreach/outreach-backend/internal/config"
)

const postmarkSendURL = "https://api.postmarkapp.com/email"

// PostmarkProvider delivers mail through the Postmark API
type PostmarkProvider struct {
	serverToken    string
	fromAddress    string
	fromName       string
	inboundAddress string
	client         *http.Client
}

func NewPostmarkProvider(cfg *config.Settings) *PostmarkProvider {
	return &PostmarkProvider{
		serverToken:    cfg.PostmarkServerToken,
		fromAddress:    cfg.EmailFromAddress,
		fromName:       cfg.EmailFromName,
		inboundAddress: cfg.EmailInboundAddress,
		client:         &http.Client{Timeout: 30 * time.Second},
	}
}

type postmarkPayload struct {
	From          string            `json:"From"`
	To            string            `json:"To"`
	Subject       string            `json:"Subject"`
	HtmlBody      string            `json:"HtmlBody,omitempty"`
	TextBody      string            `json:"TextBody,omitempty"`
	ReplyTo       string            `json:"ReplyTo,omitempty"`
	TrackOpens    bool              `json:"TrackOpens"`
	Metadata      map[string]string `json:"Metadata,omitempty"`
	MessageStream string            `json:"MessageStream,omitempty"`
}

type postmarkResponse struct {
	MessageID string `json:"MessageID"`
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// Send delivers a campaign email with open tracking and a reply-to address
// that encodes the lead ID for inbound reply detection
func (p *PostmarkProvider) Send(to, subject, htmlBody string, meta Metadata, fromOverride string) (Result, error) {
	from := p.fromAddress
	if fromOverride != "" {
		from = fromOverride
	}

	payload := postmarkPayload{
		From:       formatFrom(p.fromName, from),
		To:         to,
		Subject:    subject,
		HtmlBody:   htmlBody,
		ReplyTo:    replyToAddress(p.inboundAddress, meta.LeadID),
		TrackOpens: true,
		Metadata: map[string]string{
			"campaign_id": meta.CampaignID,
			"lead_id":     meta.LeadID,
			"step_number": fmt.Sprintf("%d", meta.StepNumber),
		},
		MessageStream: "outbound",
	}

	return p.post(payload)
}

// SendTransactional delivers plain non-campaign mail
func (p *PostmarkProvider) SendTransactional(to, subject, textBody string) (Result, error) {
	payload := postmarkPayload{
		From:          formatFrom(p.fromName, p.fromAddress),
		To:            to,
		Subject:       subject,
		TextBody:      textBody,
		MessageStream: "outbound",
	}
	return p.post(payload)
}

func (p *PostmarkProvider) post(payload postmarkPayload) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal postmark payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, postmarkSendURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build postmark request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", p.serverToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("postmark request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed postmarkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("failed to decode postmark response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || parsed.ErrorCode != 0 {
		return Result{
			Success: false,
			Error:   (&ProviderError{Message: parsed.Message, Code: parsed.ErrorCode}).Error(),
		}, nil
	}

	return Result{Success: true, MessageID: parsed.MessageID}, nil
}
