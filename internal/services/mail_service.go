package services

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"pcprompts/internal/config"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var mailTemplates embed.FS

type MailService struct {
	cfg      config.SMTPConfig
	siteURL  string
	log      *zap.Logger
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailService(cfg config.SMTPConfig, siteURL string, log *zap.Logger) *MailService {
	if !cfg.Enabled() {
		log.Warn("mail service disabled: missing SMTP settings")
	}
	return &MailService{
		cfg:      cfg,
		siteURL:  siteURL,
		log:      log,
		sendMail: smtp.SendMail,
	}
}

func (s *MailService) Enabled() bool {
	return s != nil && s.cfg.Enabled()
}

func (s *MailService) buildMessage(to []string, subject, body string) []byte {
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: PC Prompts <%s>\r\n"+
		"Subject: %s\r\n"+
		"%s\r\n%s", strings.Join(to, ","), s.cfg.From, subject, mime, body))
}

// sendAsync delivers in the background; the returned channel is closed when done.
func (s *MailService) sendAsync(to []string, subject string, body string) <-chan struct{} {
	done := make(chan struct{})
	if !s.Enabled() {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

		if err := s.sendMail(addr, auth, s.cfg.From, to, s.buildMessage(to, subject, body)); err != nil {
			s.log.Error("failed to send email", zap.Strings("to", to), zap.Error(err))
			return
		}
		s.log.Info("email sent", zap.Strings("to", to), zap.String("subject", subject))
	}()
	return done
}

func (s *MailService) parseTemplate(templateName string, data any) (string, error) {
	t, err := template.ParseFS(mailTemplates, "templates/"+templateName)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}

// SendWelcomeEmail greets a newly registered user. Failures are logged, never returned.
func (s *MailService) SendWelcomeEmail(email, name string) <-chan struct{} {
	if !s.Enabled() {
		return s.sendAsync(nil, "", "")
	}
	body, err := s.parseTemplate("welcome.html", map[string]string{
		"Name":    name,
		"SiteURL": s.siteURL,
	})
	if err != nil {
		s.log.Error("error rendering welcome email", zap.Error(err))
		done := make(chan struct{})
		close(done)
		return done
	}
	return s.sendAsync([]string{email}, "Bem-vindo ao PC Prompts", body)
}
