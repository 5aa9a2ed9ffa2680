package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"storywatch-backend/services/tracker"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type EmailConfig struct {
	Smtp SmtpConfig `json:"smtp"`
	To   []string   `json:"to"`
}

// EmailSink mails every event to a fixed list of recipients.
type EmailSink struct {
	config EmailConfig
}

func NewEmailSink(config EmailConfig) (EmailSink, error) {
	if config.Smtp.Server == "" || config.Smtp.EmailAddress == "" {
		return EmailSink{}, fmt.Errorf("smtp server and email address must be specified")
	}
	if len(config.To) == 0 {
		return EmailSink{}, fmt.Errorf("no recipients were specified")
	}
	if config.Smtp.Port == 0 {
		config.Smtp.Port = 587
	}
	return EmailSink{config: config}, nil
}

func (s EmailSink) Announce(ctx context.Context, a tracker.Announcement) error {
	return s.send(
		ctx,
		fmt.Sprintf("%s reached a milestone", a.StoryName),
		fmt.Sprintf("%s\n\n%s", a.Message, a.StoryURL),
	)
}

func (s EmailSink) RankChanged(ctx context.Context, t tracker.RankTransition) error {
	return s.send(
		ctx,
		fmt.Sprintf("%s reached %s", t.StoryName, t.Achieved),
		fmt.Sprintf("%s\n\n%s", t.Message, t.StoryURL),
	)
}

func (s EmailSink) send(ctx context.Context, subject, body string) error {
	_, span := tracer.Start(ctx, "EmailSink.send")
	defer span.End()
	span.SetAttributes(attribute.String("subject", subject))

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Storywatch <%s>", s.config.Smtp.EmailAddress)
	mail.To = s.config.To
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", s.config.Smtp.Server, s.config.Smtp.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", s.config.Smtp.EmailAddress, s.config.Smtp.Password, s.config.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
