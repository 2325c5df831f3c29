package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/smallbiznis/authhub/internal/config"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// Mailer consumes queued notifications and delivers them over SMTP.
type Mailer struct {
	from     string
	dialer   *gomail.Dialer
	subjects *config.NotificationConfigHolder
	log      *zap.Logger
}

func NewMailer(cfg config.Config, subjects *config.NotificationConfigHolder, log *zap.Logger) *Mailer {
	return &Mailer{
		from:     cfg.SMTPFrom,
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		subjects: subjects,
		log:      log.Named("mailer"),
	}
}

// Run consumes the mailer topic until ctx is cancelled. Delivery failures
// are logged and the message acked anyway; there is no retry.
func (m *Mailer) Run(ctx context.Context, sub message.Subscriber) error {
	msgs, err := sub.Subscribe(ctx, TopicAccountMailer)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			if err := m.handle(msg); err != nil {
				m.log.Error("notification delivery failed",
					zap.String("message_id", msg.UUID),
					zap.Error(err),
				)
			}
			msg.Ack()
		}
	}()
	return nil
}

func (m *Mailer) handle(msg *message.Message) error {
	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}

	recipients, _ := env.Data["emailAddresses"].(string)
	if recipients == "" {
		return fmt.Errorf("notification %s has no recipients", env.Type)
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.from)
	mail.SetHeader("To", strings.Split(recipients, ",")...)
	mail.SetHeader("Subject", m.subjects.Subject(string(env.Type)))
	mail.SetBody("text/plain", renderBody(env))

	return m.dialer.DialAndSend(mail)
}

func renderBody(env Envelope) string {
	var b strings.Builder
	if name, ok := env.Data["productName"].(string); ok && name != "" {
		fmt.Fprintf(&b, "Product: %s\n", name)
	}
	switch env.Type {
	case TypeProductConfirmation:
		b.WriteString("Your subscription request was received and is awaiting review.\n")
	case TypeProductApproved:
		b.WriteString("Your subscription has been approved.\n")
	case TypeProductReapproved:
		b.WriteString("Your subscription has been re-approved.\n")
	case TypeProductRejected:
		b.WriteString("Your subscription has been rejected.\n")
	}
	if remarks, ok := env.Data["remarks"].(string); ok && remarks != "" {
		fmt.Fprintf(&b, "Remarks: %s\n", remarks)
	}
	return b.String()
}
