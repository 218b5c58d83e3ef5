// Package mailer delivers transactional email through Resend. Delivery is
// fire-and-forget: sends are queued to a background worker and failures are
// logged, never returned, so a slow or failing mail path cannot block or fail
// the request that triggered it.
package mailer

import (
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/apnisec/backend/internal/config"
	"github.com/apnisec/backend/internal/model"
)

const queueSize = 64

type Mailer struct {
	client *resend.Client
	from   string
	logger *zap.Logger
	queue  chan job
	done   chan struct{}
}

type job struct {
	to      string
	subject string
	html    string
}

// New returns a mailer. When no API key is configured the mailer runs in
// log-only mode and every send becomes a log line.
func New(cfg config.EmailConfig, logger *zap.Logger) *Mailer {
	m := &Mailer{
		from:   cfg.FromEmail,
		logger: logger,
		queue:  make(chan job, queueSize),
		done:   make(chan struct{}),
	}
	if cfg.ResendAPIKey == "" {
		logger.Warn("RESEND_API_KEY is not set, email delivery disabled")
	} else {
		m.client = resend.NewClient(cfg.ResendAPIKey)
	}
	go m.worker()
	return m
}

// Close drains the queue and stops the worker.
func (m *Mailer) Close() {
	close(m.queue)
	<-m.done
}

func (m *Mailer) SendWelcome(email, name string) {
	m.enqueue(job{
		to:      email,
		subject: "Welcome to ApniSec - Your Security Journey Begins!",
		html:    welcomeHTML(name),
	})
}

func (m *Mailer) SendIssueCreated(email string, issue model.Issue) {
	m.enqueue(job{
		to:      email,
		subject: fmt.Sprintf("New %s Issue: %s", strings.ReplaceAll(issue.Type, "_", " "), issue.Title),
		html:    issueCreatedHTML(issue),
	})
}

func (m *Mailer) enqueue(j job) {
	select {
	case m.queue <- j:
	default:
		m.logger.Warn("mail queue full, dropping message", zap.String("to", j.to), zap.String("subject", j.subject))
	}
}

func (m *Mailer) worker() {
	defer close(m.done)
	for j := range m.queue {
		m.send(j)
	}
}

func (m *Mailer) send(j job) {
	if m.client == nil {
		m.logger.Info("email delivery skipped (no API key)",
			zap.String("to", j.to), zap.String("subject", j.subject))
		return
	}

	_, err := m.client.Emails.Send(&resend.SendEmailRequest{
		From:    fmt.Sprintf("ApniSec <%s>", m.from),
		To:      []string{j.to},
		Subject: j.subject,
		Html:    j.html,
	})
	if err != nil {
		m.logger.Error("failed to send email",
			zap.String("to", j.to), zap.String("subject", j.subject), zap.Error(err))
		return
	}
	m.logger.Info("email sent", zap.String("to", j.to), zap.String("subject", j.subject))
}

func welcomeHTML(name string) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
  <h1>Welcome to ApniSec, %s!</h1>
  <p>Your account is ready. Track vulnerability assessments, cloud security
  findings and red-team engagements from your dashboard.</p>
  <p>Stay secure,<br>The ApniSec Team</p>
</div>`, htmlEscape(name))
}

func issueCreatedHTML(issue model.Issue) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
  <h1>New Security Issue Created</h1>
  <p><strong>%s</strong></p>
  <p>%s</p>
  <ul>
    <li>Type: %s</li>
    <li>Priority: %s</li>
    <li>Status: %s</li>
  </ul>
</div>`,
		htmlEscape(issue.Title),
		htmlEscape(issue.Description),
		strings.ReplaceAll(issue.Type, "_", " "),
		issue.Priority,
		issue.Status,
	)
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(s)
}
