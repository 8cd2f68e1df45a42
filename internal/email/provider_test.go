package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldreach/outreach-backend/internal/config"
)

func TestReplyToAddress(t *testing.T) {
	leadID := "550e8400-e29b-41d4-a716-446655440002"

	assert.Equal(t,
		"reply+550e8400-e29b-41d4-a716-446655440002@coldreach.io",
		replyToAddress("reply@coldreach.io", leadID))

	t.Run("unconfigured inbound address", func(t *testing.T) {
		assert.Empty(t, replyToAddress("", leadID))
		assert.Empty(t, replyToAddress("not-an-address", leadID))
	})
}

func TestFormatFrom(t *testing.T) {
	assert.Equal(t, "Jane <jane@coldreach.io>", formatFrom("Jane", "jane@coldreach.io"))
	assert.Equal(t, "jane@coldreach.io", formatFrom("", "jane@coldreach.io"))
}

func TestProviderError(t *testing.T) {
	assert.Equal(t, "mailbox full (code 406)", (&ProviderError{Message: "mailbox full", Code: 406}).Error())
	assert.Equal(t, "mailbox full", (&ProviderError{Message: "mailbox full"}).Error())
}

func TestLogProviderAlwaysSucceeds(t *testing.T) {
	provider := NewLogProvider()

	result, err := provider.Send("jane@acme.io", "Hello", "<p>Hi</p>", Metadata{StepNumber: 1}, "")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.MessageID, "log-")
}

func TestNewProviderSelection(t *testing.T) {
	cases := []struct {
		name     string
		provider string
		want     interface{}
	}{
		{"postmark", "postmark", &PostmarkProvider{}},
		{"resend", "resend", &ResendProvider{}},
		{"log", "log", &LogProvider{}},
		{"unknown falls back to log", "sendgrid", &LogProvider{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewProvider(&config.Settings{EmailProvider: tc.provider})
			assert.IsType(t, tc.want, got)
		})
	}
}
