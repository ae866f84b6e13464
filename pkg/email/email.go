package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"
)

// Config is the SMTP relay used for operator notifications.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	To       string
}

// EmailService handles sending emails via SMTP
type EmailService struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
	toEmail   string

	send func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// SignupEmailData holds the data for a new beta tester notification
type SignupEmailData struct {
	Email       string
	Phone       string
	Remarks     string
	Language    string
	SubmittedAt time.Time
}

func NewEmailService(cfg Config) *EmailService {
	return &EmailService{
		host:      cfg.Host,
		port:      cfg.Port,
		username:  cfg.Username,
		password:  cfg.Password,
		fromEmail: cfg.Username, // relay login doubles as the from address
		toEmail:   cfg.To,
		send:      sendMail,
	}
}

const signupEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Beta Tester</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0066cc; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .field { margin-bottom: 15px; }
        .label { font-weight: bold; color: #555; }
        .remarks { background: white; padding: 15px; border-left: 4px solid #0066cc; margin-top: 10px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>New Beta Tester Signup</h1>
        </div>
        <div class="content">
            <div class="field"><span class="label">Email:</span> {{.Email}}</div>
            {{if .Phone}}<div class="field"><span class="label">Phone:</span> {{.Phone}}</div>{{end}}
            <div class="field"><span class="label">Language:</span> {{.Language}}</div>
            <div class="field"><span class="label">Submitted:</span> {{.SubmittedAt.Format "2006-01-02 15:04:05 MST"}}</div>
            {{if .Remarks}}<div class="remarks">{{.Remarks}}</div>{{end}}
        </div>
    </div>
</body>
</html>`

var signupTmpl = template.Must(template.New("signup").Parse(signupEmailTemplate))

// SendSignupEmail notifies the configured recipient about a new signup. It
// gives up when ctx is done.
func (s *EmailService) SendSignupEmail(ctx context.Context, data SignupEmailData) error {
	msg, err := s.buildSignupMessage(data)
	if err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.send(ctx, addr, auth, s.fromEmail, []string{s.toEmail}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) buildSignupMessage(data SignupEmailData) ([]byte, error) {
	var body bytes.Buffer
	if err := signupTmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to execute email template: %w", err)
	}

	return []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Reply-To: %s\r\n"+
			"Subject: Beta tester signup: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		s.fromEmail,
		s.toEmail,
		data.Email,
		data.Email,
		body.String(),
	)), nil
}

// IsConfigured checks if the email service has valid SMTP configuration
func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.username != "" && s.password != "" && s.toEmail != ""
}
