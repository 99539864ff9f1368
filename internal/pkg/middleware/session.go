package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	internaljwt "github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/jwt"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/response"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

const (
	audienceCustomer = "customer"
	audienceAdmin    = "admin"
)

func bearerToken(r *http.Request) (string, error) {
	authorization := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(authorization, "Bearer ")
	if !found || token == "" {
		return "", errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "missing bearer token")
	}

	return token, nil
}

func verifyAudience(claims jwt.RegisteredClaims, audience string) error {
	for _, aud := range claims.Audience {
		if aud == audience {
			return nil
		}
	}

	return errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "token audience mismatch")
}

func reject(w http.ResponseWriter, err error) {
	ae := errors.Destruct(err)
	response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
		Status:  ae.Status,
		Message: ae.Message,
	})
}

// CustomerSession authenticates customer requests and attaches the account
// to the request context.
type CustomerSession struct {
	jsonWebToken *internaljwt.JSONWebToken
	session      session.Store
}

func NewCustomerSessionMiddleware(jsonWebToken *internaljwt.JSONWebToken, store session.Store) *CustomerSession {
	return &CustomerSession{
		jsonWebToken: jsonWebToken,
		session:      store,
	}
}

func (m *CustomerSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			reject(w, err)
			return
		}

		claims := jwt.RegisteredClaims{}
		if err := m.jsonWebToken.Parse(token, &claims); err != nil {
			reject(w, err)
			return
		}
		if err := verifyAudience(claims, audienceCustomer); err != nil {
			reject(w, err)
			return
		}

		account, err := m.session.GetAccount(r.Context(), token)
		if err != nil {
			reject(w, err)
			return
		}

		next(w, r.WithContext(session.SetAccountToCtx(r.Context(), account)))
	}
}

// AdminSession authenticates staff requests and attaches the staff
// identity to the request context.
type AdminSession struct {
	jsonWebToken *internaljwt.JSONWebToken
	session      session.Store
}

func NewAdminSessionMiddleware(jsonWebToken *internaljwt.JSONWebToken, store session.Store) *AdminSession {
	return &AdminSession{
		jsonWebToken: jsonWebToken,
		session:      store,
	}
}

func (m *AdminSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			reject(w, err)
			return
		}

		claims := jwt.RegisteredClaims{}
		if err := m.jsonWebToken.Parse(token, &claims); err != nil {
			reject(w, err)
			return
		}
		if err := verifyAudience(claims, audienceAdmin); err != nil {
			reject(w, err)
			return
		}

		admin, err := m.session.GetAdmin(r.Context(), token)
		if err != nil {
			reject(w, err)
			return
		}

		next(w, r.WithContext(session.SetAdminToCtx(r.Context(), admin)))
	}
}
