package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

type contextKey string

const (
	accountContextKey contextKey = "session.account"
	adminContextKey   contextKey = "session.admin"
)

// Account is a customer identity attached to the request context by the
// session middleware.
type Account struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Admin is a staff identity. EventIDs scopes which events the staff member
// may operate on; empty means all.
type Admin struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	EventIDs []string `json:"event_ids"`
}

// IsStaffForEvent reports whether the admin may act on the given event.
func (a Admin) IsStaffForEvent(eventID string) bool {
	if len(a.EventIDs) == 0 {
		return true
	}
	for _, id := range a.EventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}

type Store interface {
	GetAccount(ctx context.Context, token string) (Account, error)
	SetAccount(ctx context.Context, token string, account Account, ttl time.Duration) error
	GetAdmin(ctx context.Context, token string) (Admin, error)
	SetAdmin(ctx context.Context, token string, admin Admin, ttl time.Duration) error
}

type redisSessionStore struct {
	logger *logrus.Logger
	client *redis.Client
}

func NewRedisSessionStore(logger *logrus.Logger, client *redis.Client) Store {
	return &redisSessionStore{
		logger: logger,
		client: client,
	}
}

func (s *redisSessionStore) get(ctx context.Context, key string, dest interface{}) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "session has expired")
	}
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting session")
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while decoding session")
	}

	return nil
}

func (s *redisSessionStore) set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, _ := json.Marshal(value)

	if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while storing session")
	}

	return nil
}

func (s *redisSessionStore) GetAccount(ctx context.Context, token string) (Account, error) {
	var account Account
	err := s.get(ctx, fmt.Sprintf("session:customer:%s", token), &account)
	return account, err
}

func (s *redisSessionStore) SetAccount(ctx context.Context, token string, account Account, ttl time.Duration) error {
	return s.set(ctx, fmt.Sprintf("session:customer:%s", token), account, ttl)
}

func (s *redisSessionStore) GetAdmin(ctx context.Context, token string) (Admin, error) {
	var admin Admin
	err := s.get(ctx, fmt.Sprintf("session:admin:%s", token), &admin)
	return admin, err
}

func (s *redisSessionStore) SetAdmin(ctx context.Context, token string, admin Admin, ttl time.Duration) error {
	return s.set(ctx, fmt.Sprintf("session:admin:%s", token), admin, ttl)
}

// SetAccountToCtx attaches a customer account to the context.
func SetAccountToCtx(ctx context.Context, account Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}

// GetAccountFromCtx returns the customer account attached to the context.
func GetAccountFromCtx(ctx context.Context) (Account, error) {
	account, ok := ctx.Value(accountContextKey).(Account)
	if !ok {
		return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "account is not found on the request context")
	}

	return account, nil
}

// SetAdminToCtx attaches a staff identity to the context.
func SetAdminToCtx(ctx context.Context, admin Admin) context.Context {
	return context.WithValue(ctx, adminContextKey, admin)
}

// GetAdminFromCtx returns the staff identity attached to the context.
func GetAdminFromCtx(ctx context.Context) (Admin, error) {
	admin, ok := ctx.Value(adminContextKey).(Admin)
	if !ok {
		return Admin{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "admin is not found on the request context")
	}

	return admin, nil
}
