// Package mail renders and sends the transactional notifications over
// SendGrid. Every send goes through the notification outbox: insert first,
// attempt immediately, leave failures for the retry worker.
package mail

import (
	"context"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"log/slog"

	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/klubben/events-manager/internal/dependency"
	"github.com/klubben/events-manager/internal/entity"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

type Config struct {
	APIKey         string        `mapstructure:"sendgrid_api_key"`
	FromEmail      string        `mapstructure:"from_email"`
	FromName       string        `mapstructure:"from_email_name"`
	WorkerInterval time.Duration `mapstructure:"worker_interval"`
}

type Mailer struct {
	cli       Sender
	outbox    dependency.Notifications
	from      *mail.Email
	c         *Config
	ctx       context.Context
	cancel    context.CancelFunc
	templates map[string]*template.Template
}

func New(c *Config, outbox dependency.Notifications) (dependency.Mailer, error) {
	if c.APIKey == "" || c.FromEmail == "" || c.FromName == "" {
		return nil, fmt.Errorf("incomplete config: %+v", c)
	}
	if c.WorkerInterval == 0 {
		c.WorkerInterval = time.Minute
	}

	from := mail.NewEmail(c.FromName, c.FromEmail)
	m := &Mailer{
		cli:       newSendgridSender(c.APIKey, from),
		outbox:    outbox,
		from:      from,
		c:         c,
		templates: make(map[string]*template.Template),
	}

	if err := m.parseTemplates(); err != nil {
		return nil, fmt.Errorf("error parsing templates: %w", err)
	}

	return m, nil
}

func (m *Mailer) parseTemplates() error {
	templateDir := "templates"

	dirEntries, err := templatesFS.ReadDir(templateDir)
	if err != nil {
		return fmt.Errorf("error reading template directory: %w", err)
	}

	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		templatePath := filepath.Join(templateDir, entry.Name())
		tmpl, err := template.ParseFS(templatesFS, templatePath)
		if err != nil {
			return fmt.Errorf("error parsing template '%s': %w", entry.Name(), err)
		}
		m.templates[entry.Name()] = tmpl
	}

	return nil
}

func (m *Mailer) buildNotification(to string, tn string, data interface{}) (*entity.Notification, error) {
	tmpl, ok := m.templates[tn]
	if !ok {
		return nil, fmt.Errorf("template not found: %v", tn)
	}

	subject, ok := templateSubjects[tn]
	if !ok {
		return nil, fmt.Errorf("subject not found for template: %v", tn)
	}

	body := &strings.Builder{}
	if err := tmpl.Execute(body, data); err != nil {
		return nil, fmt.Errorf("error executing template: %w", err)
	}

	return &entity.Notification{
		Kind:      templateKinds[tn],
		Recipient: to,
		Subject:   subject,
		Html:      body.String(),
	}, nil
}

// sendWithInsert persists the notification to the outbox and attempts the
// send. A failed attempt is left unsent for the worker to retry.
func (m *Mailer) sendWithInsert(ctx context.Context, rep dependency.Repository, n *entity.Notification) error {
	id, err := rep.Notifications().AddNotification(ctx, n)
	if err != nil {
		return fmt.Errorf("error inserting notification: %w", err)
	}

	if err := m.cli.Send(ctx, n.Recipient, n.Subject, n.Html); err != nil {
		// mail send failed, it will be retried by the worker
		slog.Default().ErrorContext(ctx, "can't send mail",
			slog.String("err", err.Error()),
		)
		return nil
	}

	if err := rep.Notifications().UpdateSent(ctx, id); err != nil {
		return fmt.Errorf("error updating notification: %w", err)
	}

	return nil
}
