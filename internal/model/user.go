// Package model はドメインモデルを定義する。
package model

import "time"

// User はパスワード認証で登録されたユーザーを表す。
// 登録後は変更されない。
type User struct {
	ID             int64
	Email          string
	HashedPassword string
	CreatedAt      time.Time
}

// Session はユーザーに紐づくチャットセッションを表す。
// セッション自体に有効期限はなく、失効するのはセッショントークンのみ。
type Session struct {
	ID        string // UUID v4
	UserID    int64
	Name      string
	CreatedAt time.Time
}

// TokenTypeBearer はトークン種別の固定値。
const TokenTypeBearer = "bearer"

// Token はクライアントに返却するアクセストークンを表す。永続化しない。
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
