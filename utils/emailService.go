package utils

import (
	"context"
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"lms/config"
	"lms/logger"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const appName = "LMS"

// Mailer delivers one HTML email to every address in to.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

// NewMailer picks the provider named by MAIL_PROVIDER.
func NewMailer(cfg *config.Config) Mailer {
	switch cfg.MailProvider {
	case "smtp":
		return &SMTPMailer{Host: cfg.SMTPHost, Port: cfg.SMTPPort, From: cfg.EmailSender, Password: cfg.SMTPPassword}
	case "sendgrid":
		return NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailSender)
	default:
		return &ConsoleMailer{}
	}
}

// SMTPMailer sends through a plain-auth SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     string
	From     string
	Password string
}

func (m *SMTPMailer) Send(_ context.Context, to []string, subject, htmlBody string) error {
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: %s <%s>\r\n", appName, m.From)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", headerSafe(subject))
	msg += htmlBody

	auth := smtp.PlainAuth("", m.From, m.Password, m.Host)
	if err := smtp.SendMail(m.Host+":"+m.Port, auth, m.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// headerSafe folds line breaks so a value cannot start a new mail header.
func headerSafe(v string) string {
	return strings.TrimSpace(headerBreaks.Replace(v))
}

// SendGridMailer sends through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendGridMailer(apiKey, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(appName, fromEmail),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	p := sgmail.NewPersonalization()
	p.Subject = subject
	for _, addr := range to {
		p.AddTos(sgmail.NewEmail("", addr))
	}

	msg := sgmail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.AddPersonalizations(p)
	msg.AddContent(sgmail.NewContent("text/html", htmlBody))

	res, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// ConsoleMailer logs emails instead of sending them.
type ConsoleMailer struct{}

func (ConsoleMailer) Send(_ context.Context, to []string, subject, _ string) error {
	logger.Log.Info("email (console)", "to", to, "subject", subject)
	return nil
}

// getEmailTemplate wraps body in the shared layout. title and body must already be escaped.
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1B3A5C; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1B3A5C; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #2E7D32; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>%s</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">&copy; %s. All rights reserved.</div>
		</div>
	</body>
	</html>
	`, appName, title, bodyContent, appName)
}

// CertificateEmail renders the "certificate issued" message.
func CertificateEmail(name, courseTitle, code string) (string, string) {
	subject := headerSafe("Your certificate for " + courseTitle)
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations on completing <strong>%s</strong>.</p>
		<div class="info-box">
			Certificate code: <strong>%s</strong><br>
			Anyone can verify it at /certificates/verify/%s
		</div>
	`, html.EscapeString(name), html.EscapeString(courseTitle), html.EscapeString(code), html.EscapeString(code))
	return subject, getEmailTemplate("Course Completed!", body)
}

// EnrollmentEmail renders the enrollment confirmation.
func EnrollmentEmail(name, courseTitle string) (string, string) {
	subject := headerSafe("Enrollment confirmed: " + courseTitle)
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You are now enrolled in <strong>%s</strong>. Happy learning!</p>
	`, html.EscapeString(name), html.EscapeString(courseTitle))
	return subject, getEmailTemplate("Welcome to the course", body)
}
