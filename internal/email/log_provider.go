package email

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LogProvider records outbound mail in the application log instead of
// delivering it. Used for local development and demo environments.
type LogProvider struct{}

func NewLogProvider() *LogProvider {
	return &LogProvider{}
}

func (p *LogProvider) Send(to, subject, htmlBody string, meta Metadata, fromOverride string) (Result, error) {
	logrus.WithFields(logrus.Fields{
		"to":          to,
		"subject":     subject,
		"campaign_id": meta.CampaignID,
		"lead_id":     meta.LeadID,
		"step_number": meta.StepNumber,
	}).Info("Log provider: email send simulated")

	return Result{Success: true, MessageID: fmt.Sprintf("log-%s", uuid.NewString())}, nil
}

func (p *LogProvider) SendTransactional(to, subject, textBody string) (Result, error) {
	logrus.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("Log provider: transactional email simulated")

	return Result{Success: true, MessageID: fmt.Sprintf("log-%s", uuid.NewString())}, nil
}
