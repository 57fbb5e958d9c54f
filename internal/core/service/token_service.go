package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

var ErrInvalidToken = errors.New("invalid token")

// JWTService signs HS256 bearer tokens whose "sid" claim is the flow id.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ ports.TokenService = (*JWTService)(nil)

func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *JWTService) Issue(flowID string, id domain.Identity) (string, error) {
	claims := jwt.MapClaims{
		"sid":   flowID,
		"email": id.Email,
		"role":  string(id.Role),
		"exp":   s.now().Add(s.ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) Parse(token string) (ports.Claims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !tkn.Valid {
		return ports.Claims{}, ErrInvalidToken
	}

	sid, _ := claims["sid"].(string)
	if sid == "" {
		return ports.Claims{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	out := ports.Claims{FlowID: sid, Email: email, Role: domain.Role(role)}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
