// Package email abstracts outbound email delivery behind a provider
// interface so the scheduler never depends on a concrete vendor API.
package email

import (
	"fmt"
	"strings"
)

// Metadata carries campaign tracking fields attached to an outbound email
type Metadata struct {
	CampaignID string
	LeadID     string
	StepNumber int
}

// Result is the outcome of a send attempt as reported by the provider
type Result struct {
	Success   bool
	MessageID string
	Error     string
}

// Provider is the contract every email backend implements. Send returns a
// failure Result for provider-reported errors and a non-nil error for
// transport problems; callers are expected to treat both the same way.
type Provider interface {
	// Send delivers one campaign email. fromOverride, when non-empty,
	// replaces the configured from address.
	Send(to, subject, htmlBody string, meta Metadata, fromOverride string) (Result, error)

	// SendTransactional delivers non-campaign mail (account email etc.)
	SendTransactional(to, subject, textBody string) (Result, error)
}

// ProviderError describes a provider-level failure with an optional API code
type ProviderError struct {
	Message string
	Code    int
}

func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
	}
	return e.Message
}

// replyToAddress builds a plus-addressed reply-to that encodes the lead ID
// for inbound reply matching: reply+<leadID>@domain. Returns "" when the
// inbound address is not configured.
func replyToAddress(inboundAddress, leadID string) string {
	if inboundAddress == "" || !strings.Contains(inboundAddress, "@") {
		return ""
	}
	parts := strings.SplitN(inboundAddress, "@", 2)
	return fmt.Sprintf("%s+%s@%s", parts[0], leadID, parts[1])
}

// formatFrom renders a display-name from header when a name is configured
func formatFrom(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}
