// Package signer 生成并校验带时间戳的签名令牌（HS256 JWT）.
//
// 令牌内嵌 payload（sub）与签发时间（iat 秒精度，iat_ms 毫秒精度），同一 secret、payload、签发时刻得到相同令牌.
// 过期判断由调用方传入的 maxAge 决定，令牌本身不携带 exp.
//
// Example:
//
//	s, _ := signer.New(secret)
//	token, _ := s.Salted(imageID).Sign("200")
//	payload, err := s.Salted(imageID).Verify(token, 300*time.Second)
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSignatureInvalid 签名不匹配或令牌格式错误.
	ErrSignatureInvalid = errors.New("signature invalid")
	// ErrSignatureExpired 签名有效但已超过 maxAge.
	ErrSignatureExpired = errors.New("signature expired")
	// ErrEmptySecret 未配置密钥.
	ErrEmptySecret = errors.New("signer secret is empty")
)

// saltPrefix 派生子密钥时的命名空间前缀.
const saltPrefix = "imagevault.signer."

// claims 在标准声明之外携带毫秒级签发时间，同一秒内的两次签发也能区分.
type claims struct {
	jwt.RegisteredClaims
	IssuedAtMs int64 `json:"iat_ms,omitempty"`
}

// Signer 无状态的 HMAC 签名器，可在多个 goroutine 间共享.
type Signer struct {
	key []byte
	now func() time.Time
}

// Option Signer 选项.
type Option func(*Signer)

// WithClock 替换时间源，测试中用于模拟时间流逝.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// New 使用进程级密钥创建 Signer.
func New(secret string, opts ...Option) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	s := &Signer{key: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Salted 返回绑定到 salt 命名空间的 Signer，其令牌不能在其它命名空间通过校验.
func (s *Signer) Salted(salt string) *Signer {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(saltPrefix + salt))

	return &Signer{key: mac.Sum(nil), now: s.now}
}

// Now 返回签名器使用的当前时间.
func (s *Signer) Now() time.Time {
	return s.now()
}

// Sign 以当前时间对 payload 签名.
func (s *Signer) Sign(payload string) (string, error) {
	return s.SignAt(payload, s.now())
}

// SignAt 以指定签发时间对 payload 签名，时间截断到毫秒.
func (s *Signer) SignAt(payload string, at time.Time) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  payload,
			IssuedAt: jwt.NewNumericDate(at),
		},
		IssuedAtMs: at.UnixMilli(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

// Verify 校验签名并检查 now - iat 是否超过 maxAge，成功时返回原始 payload.
func (s *Signer) Verify(token string, maxAge time.Duration) (string, error) {
	c := &claims{}

	parsed, err := jwt.ParseWithClaims(token, c, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrSignatureInvalid
	}

	issued, err := c.issuedAt()
	if err != nil {
		return "", err
	}

	if age := s.now().Sub(issued); age > maxAge {
		return "", fmt.Errorf("%w: age %s exceeds %s", ErrSignatureExpired, age.Truncate(time.Second), maxAge)
	}

	return c.Subject, nil
}

// issuedAt 优先使用毫秒签发时间，两者必须落在同一秒. 只有 iat 的令牌按秒计算.
func (c *claims) issuedAt() (time.Time, error) {
	if c.IssuedAt == nil {
		return time.Time{}, ErrSignatureInvalid
	}

	if c.IssuedAtMs == 0 {
		return c.IssuedAt.Time, nil
	}

	ms := time.UnixMilli(c.IssuedAtMs)
	if ms.Unix() != c.IssuedAt.Unix() {
		return time.Time{}, ErrSignatureInvalid
	}

	return ms, nil
}
