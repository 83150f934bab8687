// Package security は認証情報とトークンの処理、入力のサニタイズを提供する。
//
// Sanitizer は構造解析の前に生の入力文字列を正規化する。
// ベアラートークンからは許可されない文字を除去し、フォーム値からは制御文字を除去する。
// 自由記述のラベルはbluemondayのstrictポリシーでマークアップを取り除く。
package security

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// MaxTokenLength はサニタイズ後のトークンの最大長（バイト）。
	MaxTokenLength = 4096
	// MaxFieldLength はフォーム値の最大長（文字数）。
	MaxFieldLength = 1024
)

// Sanitizer は入力文字列のサニタイズを行う。
// bluemondayのポリシーはスレッドセーフなので、1インスタンスを全リクエストで共有できる。
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer はSanitizerを生成する。
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Token はベアラートークン文字列から base64url 文字と "." 以外を除去し、
// MaxTokenLength で切り詰める。
// 正しい形式のJWTはこれらの文字のみで構成されるため、変更されない。
func (s *Sanitizer) Token(raw string) string {
	var b strings.Builder
	b.Grow(min(len(raw), MaxTokenLength))
	for i := 0; i < len(raw) && b.Len() < MaxTokenLength; i++ {
		if isTokenByte(raw[i]) {
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

// Field はフォーム値からNULを含む制御文字を除去し、MaxFieldLength 文字で切り詰める。
// 記号や空白は保持する（パスワードの特殊文字を壊さないため）。
func (s *Sanitizer) Field(raw string) string {
	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, "")
	}

	var b strings.Builder
	n := 0
	for _, r := range raw {
		if n >= MaxFieldLength {
			break
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// Text は自由記述のラベルからすべてのHTMLマークアップを除去する。
// script/style要素は中身ごと除去される。結果には Field と同じ規則も適用する。
func (s *Sanitizer) Text(raw string) string {
	return strings.TrimSpace(s.Field(s.policy.Sanitize(s.Field(raw))))
}

// TruncateToken はログ出力用にトークンの先頭10文字だけを残す。
func TruncateToken(raw string) string {
	const visible = 10
	if len(raw) <= visible {
		return strings.Repeat("*", len(raw)) + "..."
	}
	return raw[:visible] + "..."
}

func isTokenByte(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '_', c == '.':
		return true
	default:
		return false
	}
}
