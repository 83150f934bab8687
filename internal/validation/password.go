package validation

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 64
)

// PasswordSpecialCharacters はパスワードに1文字以上含める必要がある記号の集合。
const PasswordSpecialCharacters = `!@#$%^&*(),.?":{}|<>`

// Password は強度ルールを満たした平文パスワード。
// 誤ってログに出力されないよう、String()はマスクした値を返す。
type Password struct {
	value string
}

// NewPassword はパスワード強度ルールをすべて検査する。
// 違反したルールはすべてValidationErrorに列挙される。
func NewPassword(raw string) (Password, error) {
	ve := &ValidationError{}

	n := utf8.RuneCountInString(raw)
	if n < minPasswordLength {
		ve.add("password", "Password must be at least 8 characters long")
	}
	if n > maxPasswordLength {
		ve.add("password", "Password must be at most 64 characters long")
	}
	// ログイン時のフォーム値は制御文字を除去されるため、登録時点で拒否する
	if strings.ContainsFunc(raw, unicode.IsControl) {
		ve.add("password", "Password must not contain control characters")
	}
	if !strings.ContainsFunc(raw, isUpperASCII) {
		ve.add("password", "Password must contain at least one uppercase letter")
	}
	if !strings.ContainsFunc(raw, isLowerASCII) {
		ve.add("password", "Password must contain at least one lowercase letter")
	}
	if !strings.ContainsFunc(raw, isDigitASCII) {
		ve.add("password", "Password must contain at least one number")
	}
	if !strings.ContainsAny(raw, PasswordSpecialCharacters) {
		ve.add("password", "Password must contain at least one special character")
	}

	if err := ve.errOrNil(); err != nil {
		return Password{}, err
	}
	return Password{value: raw}, nil
}

// Reveal は平文を返す。ハッシュ化の直前でのみ使用する。
func (p Password) Reveal() string {
	return p.value
}

// String はマスクした値を返す。
func (p Password) String() string {
	return "********"
}

// LogValue はslog出力時にもマスクした値を返す。
func (p Password) LogValue() slog.Value {
	return slog.StringValue(p.String())
}

func isUpperASCII(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLowerASCII(r rune) bool { return r >= 'a' && r <= 'z' }
func isDigitASCII(r rune) bool { return r >= '0' && r <= '9' }
