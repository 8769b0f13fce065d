package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewSMTPSenderValidation(t *testing.T) {
	if _, err := NewSMTPSender("", 587, "", "", "no-reply@manoya.com.ar", "MANO YA", false); err == nil {
		t.Fatalf("expected error for empty host")
	}
	if _, err := NewSMTPSender("smtp.local", 587, "", "", "", "MANO YA", false); err == nil {
		t.Fatalf("expected error for empty from")
	}
	s, err := NewSMTPSender("smtp.local", 0, "", "", "no-reply@manoya.com.ar", "MANO YA", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.port != 587 {
		t.Fatalf("expected default port 587, got %d", s.port)
	}
}

func TestBuildVerificationMessage(t *testing.T) {
	expires := time.Date(2025, 3, 1, 15, 10, 0, 0, time.UTC)
	msg := string(buildMessage("no-reply@manoya.com.ar", "MANO YA", "ana@example.com", verificationSubject, verificationBody("123456", expires), expires))

	if !strings.Contains(msg, "From: \"MANO YA\" <no-reply@manoya.com.ar>\r\n") {
		t.Fatalf("missing from header:\n%s", msg)
	}
	if !strings.Contains(msg, "Subject: =?UTF-8?q?") {
		t.Fatalf("expected encoded subject:\n%s", msg)
	}
	if !strings.Contains(msg, "123456") {
		t.Fatalf("code missing from body")
	}
	if !strings.Contains(msg, "12:10") {
		t.Fatalf("expected Buenos Aires time in body:\n%s", msg)
	}
	if !strings.Contains(msg, "Date: Sat, 01 Mar 2025 15:10:00 +0000\r\n") {
		t.Fatalf("missing date header:\n%s", msg)
	}
	if !strings.Contains(msg, "\r\n\r\n") {
		t.Fatalf("expected header/body separator")
	}
}

func TestBuildMessageWithoutDisplayName(t *testing.T) {
	msg := string(buildMessage("no-reply@manoya.com.ar", "", "ana@example.com", "hola", "cuerpo", time.Now()))
	if !strings.Contains(msg, "From: <no-reply@manoya.com.ar>\r\n") {
		t.Fatalf("unexpected from header:\n%s", msg)
	}
}

func TestSMTPSenderRejectsEmptyRecipient(t *testing.T) {
	s, _ := NewSMTPSender("smtp.local", 587, "", "", "no-reply@manoya.com.ar", "", false)
	if err := s.SendVerificationCode(context.Background(), " ", "123456", time.Now()); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}

func TestDisabledSender(t *testing.T) {
	err := NewDisabledSender("smtp not configured").SendVerificationCode(context.Background(), "a@b.com", "1", time.Now())
	if !errors.Is(err, ErrSenderDisabled) {
		t.Fatalf("expected ErrSenderDisabled, got %v", err)
	}
	if !strings.Contains(err.Error(), "smtp not configured") {
		t.Fatalf("expected reason in error, got %v", err)
	}
}
