package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Notifier delivers operational reports to staff.
type Notifier interface {
	DeliverReport(ctx context.Context, recipient, subject, body string) error
}

// smsNotifier sends reports as text messages. SMS has no subject
// line, so the subject becomes the first line of the message.
type smsNotifier struct {
	gateway CommunicationGateway
}

func NewSMSNotifier(gateway CommunicationGateway) Notifier {
	return &smsNotifier{gateway: gateway}
}

func (n *smsNotifier) DeliverReport(ctx context.Context, recipient, subject, body string) error {
	if _, err := n.gateway.SendMessage(ctx, recipient, subject+"\n"+body); err != nil {
		return fmt.Errorf("deliver report to %s: %w", recipient, err)
	}
	log.Info().Str("recipient", recipient).Str("subject", subject).Msg("report delivered")
	return nil
}
