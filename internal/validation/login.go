package validation

import "errors"

// GrantTypePassword はログインで受け付ける唯一のgrant_type。
const GrantTypePassword = "password"

// ErrUnsupportedGrantType はgrant_typeが"password"以外の場合に返される。
// 検証エラー（422）ではなく不正リクエスト（400）として扱う。
var ErrUnsupportedGrantType = errors.New("unsupported grant type")

// RequirePasswordGrant はgrant_typeが厳密に"password"であることを検査する。
// 拡張グラントを含め、他のすべての値を拒否する。
func RequirePasswordGrant(grantType string) error {
	if grantType != GrantTypePassword {
		return ErrUnsupportedGrantType
	}
	return nil
}

// LoginInput はログインフォームの検証済み入力。
type LoginInput struct {
	Email    Email
	Password string
}

// NewLoginInput はログインフォームを検証する。
// パスワードは強度ルールを適用せず、空でないことのみ検査する
// （ルール変更前に登録されたユーザーもログインできるようにするため）。
func NewLoginInput(username, password string) (LoginInput, error) {
	ve := &ValidationError{}

	email, err := NewEmail(username)
	if err != nil {
		ve.merge("", err)
	}
	if password == "" {
		ve.add("password", "Password is required")
	}

	if err := ve.errOrNil(); err != nil {
		return LoginInput{}, err
	}
	return LoginInput{Email: email, Password: password}, nil
}

// RegisterInput はユーザー登録の検証済み入力。
type RegisterInput struct {
	Email    Email
	Password Password
}

// NewRegisterInput はメールアドレスとパスワードをまとめて検証する。
// 両方に違反がある場合はすべての違反を返す。
func NewRegisterInput(email, password string) (RegisterInput, error) {
	ve := &ValidationError{}

	e, err := NewEmail(email)
	if err != nil {
		ve.merge("", err)
	}
	p, err := NewPassword(password)
	if err != nil {
		ve.merge("", err)
	}

	if err := ve.errOrNil(); err != nil {
		return RegisterInput{}, err
	}
	return RegisterInput{Email: e, Password: p}, nil
}
