package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/careerdesk/portal-server-go/internal/model"
)

// Mailer sends a templated transactional email. Implementations must not
// retry; the caller decides how a failed send surfaces to the user.
type Mailer interface {
	Send(to string, template model.MailTemplate, args ...string) error
}

type template struct {
	subject string
	body    string // fmt verbs filled from args
}

var templates = map[model.MailTemplate]template{
	model.MailTemplateVerifyEmail: {
		subject: "Verify your email address",
		body:    "Your verification code is %s. It expires in 30 minutes.",
	},
	model.MailTemplateResetCode: {
		subject: "Reset your password",
		body:    "Your password reset code is %s. It expires in 30 minutes.",
	},
	model.MailTemplateWelcome: {
		subject: "Welcome to CareerDesk",
		body:    "Hi %s, your profile is set up and you can now sign in.",
	},
}

// SMTPMailer delivers mail through a single SMTP relay. Constructed once at
// startup and injected into services; there is no package-level client.
type SMTPMailer struct {
	addr string
	host string
	from string
	auth smtp.Auth
}

func NewSMTPMailer(addr, host, user, pass, from string) *SMTPMailer {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return &SMTPMailer{addr: addr, host: host, from: from, auth: auth}
}

func (m *SMTPMailer) Send(to string, tmpl model.MailTemplate, args ...string) error {
	t, ok := templates[tmpl]
	if !ok {
		return fmt.Errorf("unknown mail template: %s", tmpl)
	}

	anyArgs := make([]any, len(args))
	for i, a := range args {
		anyArgs[i] = a
	}

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", m.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", t.subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		fmt.Sprintf(t.body, anyArgs...),
	}, "\r\n")

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		log.Error().Err(err).Str("template", string(tmpl)).Msg("mail send failed")
		return fmt.Errorf("send mail: %w", err)
	}

	log.Info().Str("to", to).Str("template", string(tmpl)).Msg("mail sent")
	return nil
}
