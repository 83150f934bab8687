package validation

import (
	"net/mail"
	"strings"
)

// maxEmailLength はRFC 5321に基づくメールアドレスの最大長。
const maxEmailLength = 254

// Email は検証済みのメールアドレス。小文字に正規化されている。
type Email string

// NewEmail はメールアドレスを検証し、正規化したEmailを返す。
// 表示名付きの形式（"Alice <alice@example.com>"）は受け付けない。
func NewEmail(raw string) (Email, error) {
	ve := &ValidationError{}
	email := strings.ToLower(strings.TrimSpace(raw))

	switch {
	case email == "":
		ve.add("email", "Email is required")
	case len(email) > maxEmailLength:
		ve.add("email", "Email must be at most 254 characters long")
	default:
		if !isBareAddress(email) {
			ve.add("email", "Email is not a valid email address")
		}
	}

	if err := ve.errOrNil(); err != nil {
		return "", err
	}
	return Email(email), nil
}

// String はメールアドレスを文字列で返す。
func (e Email) String() string {
	return string(e)
}

func isBareAddress(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}

	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return true
}
