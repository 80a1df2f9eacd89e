package services

import (
	"net/smtp"
	"testing"
	"time"

	"pcprompts/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWelcomeEmail(t *testing.T) {
	cfg := config.SMTPConfig{Host: "smtp.example", Port: "587", Username: "u", Password: "p", From: "noreply@pc.sc.gov.br"}
	svc := NewMailService(cfg, "https://prompts.pc.sc.gov.br", zap.NewNop())

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	svc.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	select {
	case <-svc.SendWelcomeEmail("novo@pc.sc.gov.br", "Novo Agente"):
	case <-time.After(2 * time.Second):
		t.Fatal("welcome email not sent")
	}

	assert.Equal(t, "smtp.example:587", gotAddr)
	assert.Equal(t, []string{"novo@pc.sc.gov.br"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Bem-vindo ao PC Prompts")
	assert.Contains(t, gotMsg, "Olá, Novo Agente!")
	assert.Contains(t, gotMsg, "https://prompts.pc.sc.gov.br")
}

func TestMailDisabled(t *testing.T) {
	svc := NewMailService(config.SMTPConfig{}, "", zap.NewNop())
	require.False(t, svc.Enabled())

	called := false
	svc.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}
	<-svc.SendWelcomeEmail("x@pc.sc.gov.br", "X")
	assert.False(t, called)
}
