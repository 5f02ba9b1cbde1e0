package services

import (
	"strings"
	"testing"

	"hostelhub-backend-go/internal/config"
)

func TestBuildMessageHeaders(t *testing.T) {
	msg := string(BuildMessage("noreply@x", "a@b.c", "Hello\nInjected: yes", "line1\nline2"))
	if !strings.HasPrefix(msg, "From: noreply@x\r\nTo: a@b.c\r\nSubject: Hello Injected: yes\r\n") {
		t.Fatalf("unexpected headers: %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nline1\r\nline2") {
		t.Fatalf("unexpected body: %q", msg)
	}
}

func TestNewMailerFallsBackToLog(t *testing.T) {
	if _, ok := NewMailer(config.SMTPConfig{}).(LogMailer); !ok {
		t.Fatalf("expected LogMailer without SMTP settings")
	}
	cfg := config.SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p"}
	if _, ok := NewMailer(cfg).(*SMTPMailer); !ok {
		t.Fatalf("expected SMTPMailer when configured")
	}
}

func TestOTPMessageMentionsCode(t *testing.T) {
	for _, purpose := range []string{OTPPurposeRegistration, OTPPurposeEmail, OTPPurposePasswordReset} {
		subject, body := OTPMessage(purpose, "123456", 10)
		if subject == "" || !strings.Contains(body, "123456") || !strings.Contains(body, "10 minutes") {
			t.Fatalf("%s: bad message %q / %q", purpose, subject, body)
		}
	}
}

func TestRoleForForm(t *testing.T) {
	if role, err := RoleForForm(" Student "); err != nil || role != "STUDENT" {
		t.Fatalf("got %q, %v", role, err)
	}
	if role, err := RoleForForm("owner"); err != nil || role != "OWNER" {
		t.Fatalf("got %q, %v", role, err)
	}
	if _, err := RoleForForm("admin"); err == nil {
		t.Fatalf("admin self-registration must be rejected")
	}
}
