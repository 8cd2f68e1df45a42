package email

import (
	"github.com/sirupsen/logrus"

	"github.com/coldreach/outreach-backend/internal/config"
)

// NewProvider builds the provider selected by EMAIL_PROVIDER. Unknown values
// fall back to the log provider so local environments never hit a vendor API
// by accident.
func NewProvider(cfg *config.Settings) Provider {
	switch cfg.EmailProvider {
	case "postmark":
		return NewPostmarkProvider(cfg)
	case "resend":
		return NewResendProvider(cfg)
	case "log":
		return NewLogProvider()
	default:
		logrus.Warnf("Unknown EMAIL_PROVIDER %q, falling back to log provider", cfg.EmailProvider)
		return NewLogProvider()
	}
}
