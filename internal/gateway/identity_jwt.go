package gateway

import (
	"context"
	"fmt"

	"github.com/dgrijalva/jwt-go"
)

// JWTIdentityProvider resolves the acting user from a bearer token signed
// by the identity service.
type JWTIdentityProvider struct {
	secret []byte
}

func NewJWTIdentityProvider(secret string) *JWTIdentityProvider {
	return &JWTIdentityProvider{secret: []byte(secret)}
}

func (p *JWTIdentityProvider) Authenticate(ctx context.Context, tokenString string) (*UserIdentity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error parsing token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("sub claim not found in token")
	}

	identity := &UserIdentity{ID: sub}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	return identity, nil
}
