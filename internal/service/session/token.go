package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// The identity token is opaque to clients: an HS256 JWT carrying only
// the identity id. Presenting a valid token on reconnect resolves back
// to the same identity while it is still inside the grace period.

func (s *service) generateToken(identityId string) (string, error) {
	claims := jwt.MapClaims{
		"identity_id": identityId,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.cfg.Secret))
}

// IdentityIdFromToken resolves a client-presented token to a known
// identity id. Stale tokens (expired grace period) come back not-found.
func (s *service) IdentityIdFromToken(tokenString string) (string, error) {
	identityId, err := s.parseToken(tokenString)
	if err != nil {
		return "", err
	}

	if _, err := s.identities.ById(identityId); err != nil {
		return "", err
	}

	return identityId, nil
}

func (s *service) parseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}

	identityId, ok := claims["identity_id"].(string)
	if !ok {
		return "", errors.New("invalid token")
	}

	return identityId, nil
}
