package services

import (
	"net/http"

	svix "github.com/svix/svix-webhooks/go"
)

// IdentityVerifier authenticates identity-provider webhook deliveries.
// Verification runs on the raw request body; parsing the payload first
// would break the signature.
type IdentityVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

// SvixVerifier checks Svix signatures the way the identity provider signs
// its lifecycle events.
type SvixVerifier struct {
	wh *svix.Webhook
}

func NewSvixVerifier(secret string) (*SvixVerifier, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, err
	}
	return &SvixVerifier{wh: wh}, nil
}

func (v *SvixVerifier) Verify(payload []byte, headers http.Header) error {
	return v.wh.Verify(payload, headers)
}
