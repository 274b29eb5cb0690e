// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package auth protects the index administration endpoints with HS256 JWTs.
// Recommendation and title endpoints are public; only callers presenting a
// token with the admin role may trigger a rebuild.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// RoleAdmin may trigger index rebuilds.
	RoleAdmin = "admin"

	// Issuer is stamped into and required on every token.
	Issuer = "marquee"

	MinSecretLength = 32

	// clockSkew tolerated on exp and nbf.
	clockSkew = 30 * time.Second
)

var (
	ErrSecretTooShort = fmt.Errorf("jwt secret must be at least %d characters", MinSecretLength)
	ErrInvalidClaims  = errors.New("invalid token claims")
)

// Claims carries the caller's role next to the registered claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies HS256 tokens with one shared secret.
type JWTManager struct {
	secret []byte
	parser *jwt.Parser
	now    func() time.Time
}

func NewJWTManager(secret string) (*JWTManager, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	return &JWTManager{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkew),
		),
		now: time.Now,
	}, nil
}

// GenerateToken signs a token for subject with role, valid for ttl. Each
// token gets a random jti so individual tokens can be told apart in logs.
func (m *JWTManager) GenerateToken(subject, role string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature, issuer and time claims. A token without
// an expiry is rejected.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
