package email

import (
	"context"
	"errors"
	"time"
)

// Sender define la interfaz para entrega fuera de banda del código de
// invitación. El texto plano del código nunca se persiste.
type Sender interface {
	SendInviteCode(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendInviteCode(_ context.Context, _ string, _ string, _ time.Time) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
