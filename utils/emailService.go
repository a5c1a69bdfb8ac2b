package utils

import (
	"context"
	"fillop/config"
	"fillop/logger"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

var (
	mailerMu sync.RWMutex
	mailer   Mailer
)

// SetMailer installs m as the process mailer and returns the previous one.
func SetMailer(m Mailer) Mailer {
	mailerMu.Lock()
	defer mailerMu.Unlock()
	prev := mailer
	mailer = m
	return prev
}

func currentMailer() Mailer {
	mailerMu.RLock()
	defer mailerMu.RUnlock()
	return mailer
}

// InitMailer picks the mailer named by EMAIL_PROVIDER.
func InitMailer(cfg *config.Config) Mailer {
	var m Mailer
	switch strings.ToLower(cfg.EmailProvider) {
	case "sendgrid":
		m = NewSendgridMailer(cfg.SendgridKey, cfg.EmailFrom, cfg.EmailFromName)
	default:
		m = NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom, cfg.EmailFromName)
	}
	SetMailer(m)
	logger.Log.Info("mailer configured", "provider", cfg.EmailProvider)
	return m
}

// SMTPMailer relays mail through an authenticated SMTP server.
type SMTPMailer struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	FromName string
}

func NewSMTPMailer(host, port, user, password, from, fromName string) *SMTPMailer {
	return &SMTPMailer{Host: host, Port: port, User: user, Password: password, From: from, FromName: fromName}
}

func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	if m.Host == "" {
		return fmt.Errorf("smtp: host not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: %s <%s>\r\n", m.FromName, m.From)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Password, m.Host)
	}
	if err := smtp.SendMail(m.Host+":"+m.Port, auth, m.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// SendgridMailer sends through the SendGrid v3 mail API.
type SendgridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendgridMailer(apiKey, from, fromName string) *SendgridMailer {
	return &SendgridMailer{client: sendgrid.NewSendClient(apiKey), from: from, fromName: fromName}
}

func (m *SendgridMailer) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	msg := mail.NewV3Mail()
	msg.SetFrom(mail.NewEmail(m.fromName, m.from))
	msg.Subject = subject

	p := mail.NewPersonalization()
	for _, addr := range to {
		p.AddTos(mail.NewEmail("", addr))
	}
	msg.AddPersonalizations(p)
	msg.AddContent(mail.NewContent("text/html", htmlBody))

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid http %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
	}
	return nil
}

// SendEmail hands an HTML message to the configured mailer.
func SendEmail(to []string, subject string, htmlBody string) error {
	m := currentMailer()
	if m == nil {
		return fmt.Errorf("mailer not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := m.Send(ctx, to, subject, htmlBody); err != nil {
		logger.Log.Error("email send failed", "to", strings.Join(to, ","), "subject", subject, "error", err)
		return err
	}
	logger.Log.Debug("email sent", "to", strings.Join(to, ","), "subject", subject)
	return nil
}

func sendAsync(to []string, subject, htmlBody string) {
	go func() {
		_ = SendEmail(to, subject, htmlBody)
	}()
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1F3A5F; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1F3A5F; line-height: 1.6; }
			.otp { text-align: center; color: #2E7D32; font-size: 40px; letter-spacing: 8px; margin: 20px 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #2E7D32; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>FILLOP LEARNING</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; %d Fillop Learning. All rights reserved.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent, time.Now().Year())
}

// --- Triggers ---

// SendOTPEmail delivers a one-time code synchronously; the caller decides what a failure means.
func SendOTPEmail(otp, email string) error {
	body := fmt.Sprintf(`
		<p>Your One Time Password (OTP) is:</p>
		<div class="otp">%s</div>
		<p>The code expires in 5 minutes. Do not share it with anyone.</p>
	`, otp)
	return SendEmail([]string{email}, "Your verification code", getEmailTemplate("OTP Verification", body))
}

// SendInviteEmail mails the invitation link to a new staff member.
func SendInviteEmail(email, role, link string, expiresAt time.Time) error {
	body := fmt.Sprintf(`
		<p>You have been invited to join Fillop Learning as <strong>%s</strong>.</p>
		<p>Set your name and password to activate the account.</p>
		<a href="%s" class="btn">Accept invitation</a>
		<p style="font-size: 12px; color: #666666;">This invitation expires on %s.</p>
	`, strings.ToLower(role), link, expiresAt.Format("02 Jan 2006 15:04 MST"))
	return SendEmail([]string{email}, "You're invited to Fillop Learning", getEmailTemplate("Invitation", body))
}

func SendWelcomeEmail(email, name string) {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your account is ready. Browse the catalog and enroll in your first course.</p>
	`, name)
	sendAsync([]string{email}, "Welcome to Fillop Learning", getEmailTemplate("Welcome", body))
}

func SendEnrollmentEmail(email, name, courseTitle string) {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You have successfully enrolled in <strong>%s</strong>.</p>
		<p>Complete every module to finish the course.</p>
	`, name, courseTitle)
	sendAsync([]string{email}, "Enrollment confirmed: "+courseTitle, getEmailTemplate("Enrollment Successful", body))
}

func SendCourseCompletedEmail(email, name, courseTitle string) {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations on completing <strong>%s</strong>!</p>
	`, name, courseTitle)
	sendAsync([]string{email}, "Course completed: "+courseTitle, getEmailTemplate("Course Completed", body))
}
