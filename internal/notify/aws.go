// internal/notify/aws.go
package notify

import (
	"context"

	"offer-ledger/internal/common/aws"
)

const emailSubject = "Заявка"

// SMS delivers through SNS; the address is an E.164 phone number.
type SMS struct {
	client *aws.SNSClient
}

func NewSMS(client *aws.SNSClient) *SMS {
	return &SMS{client: client}
}

func (s *SMS) Send(ctx context.Context, phone, text string) error {
	_, err := s.client.SendSMS(ctx, phone, text)
	return err
}

// Email delivers through SES.
type Email struct {
	client *aws.SESClient
}

func NewEmail(client *aws.SESClient) *Email {
	return &Email{client: client}
}

func (e *Email) Send(ctx context.Context, to, text string) error {
	_, err := e.client.SendText(ctx, to, emailSubject, text)
	return err
}
