package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/prostore/storefront/internal/constants"
	"github.com/prostore/storefront/internal/errors"
)

func NewToken(userId uuid.UUID, secretKey string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{constants.AudienceStorefront},
			Issuer:    constants.AppStorefront,
			Subject:   userId.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(30 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	)
	return token.SignedString([]byte(secretKey))
}

func VerifyToken(token string, secretKey string) (uuid.UUID, error) {
	claims := jwt.RegisteredClaims{}
	jwtToken, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(t *jwt.Token) (interface{}, error) { return []byte(secretKey), nil },
		jwt.WithAudience(constants.AudienceStorefront),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(constants.AppStorefront),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed parsing with claims with error=%w", err)
	}
	if !jwtToken.Valid {
		return uuid.Nil, errors.ErrTokenInvalid
	}
	if claims.Subject == "" {
		return uuid.Nil, errors.ErrEmptySubject
	}
	userId, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed parsing subject with error=%w", err)
	}
	return userId, nil
}
