package security

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword は空のパスワードをハッシュ化しようとした場合に返される。
var ErrEmptyPassword = errors.New("password cannot be empty")

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	// Hash はソルト付きの一方向ハッシュを生成する。
	Hash(plain string) (string, error)
	// Verify は平文がハッシュと一致するかを判定する。
	// 不正な形式のハッシュに対してもエラーではなくfalseを返す。
	Verify(plain, hashed string) bool
}

// BcryptHasher はbcryptによるPasswordHasherの実装。
// bcryptは72バイトを超える入力を扱えないため、平文はSHA-256のbase64表現（44バイト）に
// 変換してから渡す。マルチバイト文字を含む64文字のパスワードも全体が照合対象になる。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher はBcryptHasherを生成する。
// costが範囲外の場合はbcrypt.DefaultCostを使用する。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash はパスワードのbcryptハッシュを生成する。
func (h *BcryptHasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword(prehash(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify はbcrypt.CompareHashAndPasswordで照合する。比較は定数時間で行われる。
func (h *BcryptHasher) Verify(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), prehash(plain)) == nil
}

func prehash(plain string) []byte {
	sum := sha256.Sum256([]byte(plain))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// compile-time interface check
var _ PasswordHasher = (*BcryptHasher)(nil)
