package jwt

import (
	"crypto/rsa"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

// JSONWebToken signs and parses RS256 tokens issued by the account
// service.
type JSONWebToken struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewJSONWebToken(privateKeyPEM, publicKeyPEM []byte) *JSONWebToken {
	j := &JSONWebToken{}

	if len(privateKeyPEM) > 0 {
		if key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM); err == nil {
			j.privateKey = key
		}
	}
	if len(publicKeyPEM) > 0 {
		if key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM); err == nil {
			j.publicKey = key
		}
	}

	return j
}

func (j *JSONWebToken) Sign(claims jwt.Claims) (string, error) {
	if j.privateKey == nil {
		return "", errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "signing key is not configured")
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(j.privateKey)
}

func (j *JSONWebToken) Parse(tokenString string, claims jwt.Claims) error {
	if j.publicKey == nil {
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "verification key is not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.publicKey, nil
	})
	if err != nil || !token.Valid {
		return errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "invalid token")
	}

	return nil
}
