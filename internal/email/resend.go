package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coldreach/outreach-backend/internal/config"
)

const resendSendURL = "https://api.resend.com/emails"

// ResendProvider delivers mail through the Resend API
type ResendProvider struct {
	apiKey         string
	fromAddress    string
	fromName       string
	inboundAddress string
	client         *http.Client
}

func NewResendProvider(cfg *config.Settings) *ResendProvider {
	return &ResendProvider{
		apiKey:         cfg.ResendAPIKey,
		fromAddress:    cfg.EmailFromAddress,
		fromName:       cfg.EmailFromName,
		inboundAddress: cfg.EmailInboundAddress,
		client:         &http.Client{Timeout: 30 * time.Second},
	}
}

type resendPayload struct {
	From    string            `json:"from"`
	To      []string          `json:"to"`
	Subject string            `json:"subject"`
	Html    string            `json:"html,omitempty"`
	Text    string            `json:"text,omitempty"`
	ReplyTo string            `json:"reply_to,omitempty"`
	Tags    []resendTag       `json:"tags,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type resendTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send delivers a campaign email tagged with tracking metadata
func (p *ResendProvider) Send(to, subject, htmlBody string, meta Metadata, fromOverride string) (Result, error) {
	from := p.fromAddress
	if fromOverride != "" {
		from = fromOverride
	}

	payload := resendPayload{
		From:    formatFrom(p.fromName, from),
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
		ReplyTo: replyToAddress(p.inboundAddress, meta.LeadID),
		Tags: []resendTag{
			{Name: "campaign_id", Value: meta.CampaignID},
			{Name: "lead_id", Value: meta.LeadID},
			{Name: "step_number", Value: fmt.Sprintf("%d", meta.StepNumber)},
		},
	}
	return p.post(payload)
}

// SendTransactional delivers plain non-campaign mail
func (p *ResendProvider) SendTransactional(to, subject, textBody string) (Result, error) {
	payload := resendPayload{
		From:    formatFrom(p.fromName, p.fromAddress),
		To:      []string{to},
		Subject: subject,
		Text:    textBody,
	}
	return p.post(payload)
}

func (p *ResendProvider) post(payload resendPayload) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal resend payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, resendSendURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build resend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("resend request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed resendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("failed to decode resend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{
			Success: false,
			Error:   (&ProviderError{Message: parsed.Message, Code: resp.StatusCode}).Error(),
		}, nil
	}

	return Result{Success: true, MessageID: parsed.ID}, nil
}
