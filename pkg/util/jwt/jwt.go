// Package jwt 提供访问令牌与刷新令牌的签发和校验
// 刷新令牌携带随机 TokenId，配合 Redis 中登记的当前值实现单点互踢
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// 令牌种类，写入 Subject 声明，校验方按种类拒绝跨用途的令牌
const (
	TokenKindAccess  = "access_token"
	TokenKindRefresh = "refresh_token"
)

var (
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
)

// Init 初始化签名密钥和两类令牌的有效期
func Init(signSecret string, accessExpiryMinutes, refreshExpiryHours int) {
	secret = []byte(signSecret)
	accessExpiry = time.Duration(accessExpiryMinutes) * time.Minute
	refreshExpiry = time.Duration(refreshExpiryHours) * time.Hour
}

// AuthClaims 自定义声明
// TokenId 仅刷新令牌携带
type AuthClaims struct {
	UserId  string `json:"user_id"`
	TokenId string `json:"token_id,omitempty"`
	jwt.RegisteredClaims
}

// sign 按种类签发令牌
func sign(userId, tokenId, kind string, ttl time.Duration) (string, error) {
	claims := AuthClaims{
		UserId:  userId,
		TokenId: tokenId,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "lingyin",
			Subject:   kind,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// GenerateAccessToken 签发短期访问令牌，用于接口认证
func GenerateAccessToken(userId string) (string, error) {
	return sign(userId, "", TokenKindAccess, accessExpiry)
}

// GenerateRefreshToken 签发长期刷新令牌
// 返回令牌字符串和本次生成的 TokenId，调用方将 TokenId 登记到 Redis
func GenerateRefreshToken(userId string) (tokenString string, tokenId string, err error) {
	tokenId = uuid.NewString()
	tokenString, err = sign(userId, tokenId, TokenKindRefresh, refreshExpiry)
	return
}

// ParseToken 解析并校验令牌签名与有效期
func ParseToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*AuthClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
