package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestNewPassword_Valid(t *testing.T) {
	valid := []string{
		"Abcdef1!",
		"Str0ng#Passw0rd",
		`Quote"1a`,
		"Aa1" + strings.Repeat("x", 60) + "|",
	}

	for _, pw := range valid {
		p, err := NewPassword(pw)
		if err != nil {
			t.Errorf("NewPassword(%q) error = %v", pw, err)
			continue
		}
		if p.Reveal() != pw {
			t.Errorf("Reveal() = %q, want %q", p.Reveal(), pw)
		}
	}
}

func TestNewPassword_EachRuleViolation(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{"短すぎる", "Ab1!xyz", "Password must be at least 8 characters long"},
		{"長すぎる", "Ab1!" + strings.Repeat("x", 61), "Password must be at most 64 characters long"},
		{"大文字なし", "abcdef1!", "Password must contain at least one uppercase letter"},
		{"小文字なし", "ABCDEF1!", "Password must contain at least one lowercase letter"},
		{"数字なし", "Abcdefg!", "Password must contain at least one number"},
		{"記号なし", "Abcdefg1", "Password must contain at least one special character"},
		{"許可外の記号のみ", "Abcdefg1_", "Password must contain at least one special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPassword(tt.password)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if len(ve.Violations) != 1 {
				t.Fatalf("violations = %v, want exactly 1", ve.Messages())
			}
			if ve.Violations[0].Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", ve.Violations[0].Message, tt.wantMsg)
			}
			if ve.Violations[0].Field != "password" {
				t.Errorf("field = %q, want %q", ve.Violations[0].Field, "password")
			}
		})
	}
}

func TestNewPassword_ReportsAllViolations(t *testing.T) {
	_, err := NewPassword("abc")

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}

	// 短すぎる、大文字なし、数字なし、記号なし
	if len(ve.Violations) != 4 {
		t.Errorf("violations = %d (%v), want 4", len(ve.Violations), ve.Messages())
	}
}

func TestNewPassword_MultibyteWithinLengthLimit(t *testing.T) {
	// 64文字・124バイト。文字数のみで判定する
	pw := "Aa1!" + strings.Repeat("é", 60)
	if _, err := NewPassword(pw); err != nil {
		t.Errorf("NewPassword(64 runes) error = %v", err)
	}

	if _, err := NewPassword(pw + "é"); err == nil {
		t.Error("65文字のパスワードが受け付けられた")
	}
}

func TestNewPassword_RejectsControlCharacters(t *testing.T) {
	for _, pw := range []string{"Abcdef1!\tx", "Abcdef1!\x00x", "Abcdef1!\nx", "Abcdef1!\u007fx"} {
		_, err := NewPassword(pw)

		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("NewPassword(%q) err = %v, want *ValidationError", pw, err)
			continue
		}
		if !strings.Contains(ve.Error(), "control characters") {
			t.Errorf("NewPassword(%q) violations = %v", pw, ve.Messages())
		}
	}

	// 空白は制御文字ではない
	if _, err := NewPassword("Abcdef1! x"); err != nil {
		t.Errorf("空白を含むパスワードが拒否された: %v", err)
	}
}

func TestPassword_StringIsMasked(t *testing.T) {
	p, err := NewPassword("Abcdef1!")
	if err != nil {
		t.Fatalf("NewPassword() error = %v", err)
	}

	if s := fmt.Sprint(p); strings.Contains(s, "Abcdef1!") {
		t.Errorf("fmt output leaks password: %q", s)
	}
	if v := p.LogValue(); v.Kind() != slog.KindString || v.String() != "********" {
		t.Errorf("LogValue() = %v, want masked string", v)
	}
}
