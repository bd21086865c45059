package app

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/haierkeys/block-note-service/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenIssuer 默认签发者
	DefaultTokenIssuer = "block-note-service"
	// DefaultTokenExpiry 默认有效期 1 小时
	DefaultTokenExpiry = time.Hour

	// ClaimsKey gin.Context key of the parsed *UserClaims
	ClaimsKey = "user_token"

	bearerPrefix = "Bearer "
	tokenSubject = "block-note-login"
)

var (
	// ErrEmptyToken 未携带令牌
	ErrEmptyToken = errors.New("empty token")
	// ErrInvalidToken 令牌签名、算法或有效期不合法
	ErrInvalidToken = errors.New("invalid token")
)

// TokenConfig 令牌配置
type TokenConfig struct {
	SecretKey string        `yaml:"secret-key"`
	Expiry    time.Duration `yaml:"expiry"`
	Issuer    string        `yaml:"issuer"`
}

// TokenManager issues and verifies login tokens
// TokenManager 签发与校验登录令牌
type TokenManager interface {
	Issue(uid int64, username, ip string) (string, error)
	Parse(token string) (*UserClaims, error)
	Expiry() time.Duration
}

// UserClaims JWT payload of a logged-in user
type UserClaims struct {
	UID      int64  `json:"uid"`
	Username string `json:"username"`
	IP       string `json:"ip"`
	jwt.RegisteredClaims
}

type tokenManager struct {
	cfg TokenConfig
}

// NewTokenManager zero Expiry and empty Issuer fall back to the defaults
func NewTokenManager(cfg TokenConfig) TokenManager {
	if cfg.Expiry == 0 {
		cfg.Expiry = DefaultTokenExpiry
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultTokenIssuer
	}
	return &tokenManager{cfg: cfg}
}

// signingKey the configured secret bound to this machine
func signingKey(secret string) []byte {
	return []byte(secret + "_" + util.GetMachineID())
}

func (m *tokenManager) Issue(uid int64, username, ip string) (string, error) {
	now := time.Now()
	claims := &UserClaims{
		UID:      uid,
		Username: username,
		IP:       ip,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   tokenSubject,
			ID:        strconv.FormatInt(uid, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.Expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey(m.cfg.SecretKey))
}

func (m *tokenManager) Parse(token string) (*UserClaims, error) {
	return ParseTokenWithKey(token, m.cfg.SecretKey)
}

func (m *tokenManager) Expiry() time.Duration {
	return m.cfg.Expiry
}

// ParseTokenWithKey verifies token against secret, an optional "Bearer " prefix is stripped first
// ParseTokenWithKey 使用指定密钥校验令牌
func ParseTokenWithKey(token, secret string) (*UserClaims, error) {
	token = StripBearer(token)
	if token == "" {
		return nil, ErrEmptyToken
	}

	claims := &UserClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return signingKey(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return claims, nil
}

// StripBearer removes a leading "Bearer " (any case) from an Authorization value
// StripBearer 去掉 Authorization 值前的 "Bearer "
func StripBearer(s string) string {
	s = strings.TrimSpace(s)
	scheme := strings.TrimSpace(bearerPrefix)
	if strings.EqualFold(s, scheme) {
		return ""
	}
	if len(s) >= len(bearerPrefix) && strings.EqualFold(s[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(s[len(bearerPrefix):])
	}
	return s
}

// ClaimsFrom the claims stored by the auth middleware, nil when absent
func ClaimsFrom(c *gin.Context) *UserClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*UserClaims)
	return claims
}

// GetUID 当前请求的用户 ID，未登录为 0
func GetUID(c *gin.Context) int64 {
	if claims := ClaimsFrom(c); claims != nil {
		return claims.UID
	}
	return 0
}
