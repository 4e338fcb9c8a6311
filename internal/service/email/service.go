package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v3"

	"translation-sync/internal/config"
	"translation-sync/internal/domain"
)

type Service interface {
	SendRunFailedEmail(ctx context.Context, report *domain.RunReport, runErr error) error
}

// Sender is the part of the Resend client this service uses.
type Sender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type service struct {
	sender Sender
	config *config.Config
}

var runFailedTemplate = template.Must(template.New("run_failed").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <h2>{{.Title}}</h2>
  <p>Run <code>{{.RunID}}</code> failed while <strong>{{.Stage}}</strong>.</p>
  <pre style="background:#f5f5f5;padding:12px;">{{.Error}}</pre>
  <p>Started at {{.StartedAt}}. The next scheduled run starts again from the beginning.</p>
</body>
</html>`))

// NewService returns a no-op service unless both RESEND_API_KEY and NOTIFY_EMAIL are set.
func NewService(cfg *config.Config) Service {
	if cfg.ResendAPIKey == "" || cfg.NotifyEmail == "" {
		return noopService{}
	}
	return NewServiceWithSender(resend.NewClient(cfg.ResendAPIKey).Emails, cfg)
}

func NewServiceWithSender(sender Sender, cfg *config.Config) Service {
	return &service{
		sender: sender,
		config: cfg,
	}
}

func (s *service) SendRunFailedEmail(ctx context.Context, report *domain.RunReport, runErr error) error {
	data := struct {
		Title     string
		RunID     string
		Stage     domain.RunState
		Error     string
		StartedAt string
	}{
		Title:     "Translation sync failed",
		RunID:     report.RunID.String(),
		Stage:     report.FailedIn,
		Error:     runErr.Error(),
		StartedAt: report.StartedAt.UTC().Format("2006-01-02 15:04:05 MST"),
	}

	var body bytes.Buffer
	if err := runFailedTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Translation Sync <%s>", s.config.FromEmail),
		To:      []string{s.config.NotifyEmail},
		Html:    body.String(),
		Subject: fmt.Sprintf("Translation sync failed (%s)", report.FailedIn),
	}

	_, err := s.sender.Send(params)
	return err
}

type noopService struct{}

func (noopService) SendRunFailedEmail(ctx context.Context, report *domain.RunReport, runErr error) error {
	return nil
}
