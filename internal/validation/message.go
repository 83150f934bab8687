package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/chatbridge/internal/model"
)

const (
	minContentLength = 1
	maxContentLength = 3000
)

// scriptTagPattern は大文字小文字を区別せず、改行をまたいでscriptタグを検出する。
var scriptTagPattern = regexp.MustCompile(`(?is)<script.*?>.*?</script>`)

// NewMessage はチャットメッセージを検証する。
func NewMessage(role, content string) (model.Message, error) {
	ve := &ValidationError{}

	switch role {
	case model.RoleUser, model.RoleAssistant, model.RoleSystem:
	default:
		ve.add("role", "Role must be one of user, assistant, system")
	}

	n := utf8.RuneCountInString(content)
	if n < minContentLength {
		ve.add("content", "Content must be at least 1 character long")
	}
	if n > maxContentLength {
		ve.add("content", "Content must be at most 3000 characters long")
	}
	if scriptTagPattern.MatchString(content) {
		ve.add("content", "Content contains potentially harmful script tags")
	}
	if strings.ContainsRune(content, 0) {
		ve.add("content", "Content contains null bytes")
	}

	if err := ve.errOrNil(); err != nil {
		return model.Message{}, err
	}
	return model.Message{Role: role, Content: content}, nil
}

// NewConversation はチャットリクエストのメッセージ一覧を検証する。
// 1件以上のメッセージが必要で、各メッセージの違反は "messages[i]." を付けて列挙する。
func NewConversation(messages []model.Message) ([]model.Message, error) {
	if len(messages) == 0 {
		ve := &ValidationError{}
		ve.add("messages", "At least one message is required")
		return nil, ve
	}
	return validateMessages(messages)
}

// NewReply はエージェントの応答メッセージを検証する。
// 空の応答は正常として扱い、各メッセージにはリクエストと同じ規則を適用する。
func NewReply(messages []model.Message) ([]model.Message, error) {
	return validateMessages(messages)
}

func validateMessages(messages []model.Message) ([]model.Message, error) {
	ve := &ValidationError{}

	validated := make([]model.Message, 0, len(messages))
	for i, m := range messages {
		msg, err := NewMessage(m.Role, m.Content)
		if err != nil {
			ve.merge(fmt.Sprintf("messages[%d]", i), err)
			continue
		}
		validated = append(validated, msg)
	}

	if err := ve.errOrNil(); err != nil {
		return nil, err
	}
	return validated, nil
}
