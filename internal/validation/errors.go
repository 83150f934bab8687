// Package validation はAPI境界で受け取る入力の検証を提供する。
//
// 各値オブジェクトのコンストラクタが不変条件を強制し、違反があれば
// *ValidationError を返す。違反したルールは最初の1件で打ち切らず、すべて列挙する。
package validation

import (
	"errors"
	"strings"

	"github.com/hitoshi/chatbridge/internal/model"
)

// Violation は1件のルール違反を表す。
type Violation struct {
	Field   string
	Message string
}

// ValidationError は入力検証の失敗を表す。
type ValidationError struct {
	Violations []Violation
}

// Error はerrorインターフェースを実装する。違反メッセージを "; " で連結する。
func (e *ValidationError) Error() string {
	return strings.Join(e.Messages(), "; ")
}

// Messages は違反メッセージの一覧を返す。
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return msgs
}

// Details は "field: message" 形式の違反一覧を返す。APIレスポンス用。
func (e *ValidationError) Details() []string {
	details := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		if v.Field == "" {
			details[i] = v.Message
			continue
		}
		details[i] = v.Field + ": " + v.Message
	}
	return details
}

// add は違反を追加する。
func (e *ValidationError) add(field, message string) {
	e.Violations = append(e.Violations, Violation{Field: field, Message: message})
}

// merge は別の検証エラーの違反をprefix付きで取り込む。
func (e *ValidationError) merge(prefix string, other error) {
	var ve *ValidationError
	if !errors.As(other, &ve) {
		e.add(prefix, other.Error())
		return
	}
	for _, v := range ve.Violations {
		field := v.Field
		if prefix != "" {
			field = prefix + "." + field
		}
		e.add(field, v.Message)
	}
}

// errOrNil は違反が1件もなければnilを返す。
func (e *ValidationError) errOrNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

// AsAPIError は検証エラーを422のAPIErrorに変換する。
// errが*ValidationErrorでない場合はnilを返す。
func AsAPIError(err error) *model.APIError {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	return model.NewValidationError(ve.Error(), ve.Details())
}
