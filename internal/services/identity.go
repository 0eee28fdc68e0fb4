package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/markjakearzadon/confticket-gobackend/internal/db"
)

var ErrInvalidPhone = errors.New("phone number has no digits")

type IdentityStore interface {
	Put(ctx context.Context, phone, chatID string) error
	Get(ctx context.Context, phone string) (string, error)
}

// NormalizePhone reduces a phone number to its local subscriber digits:
// non-digits are dropped, then a leading "20" country code, or else a leading
// trunk "0", is removed. Stripping repeats until neither prefix is left so
// the result is stable under a second pass.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	p := b.String()
	for {
		switch {
		case strings.HasPrefix(p, "20"):
			p = p[2:]
		case strings.HasPrefix(p, "0"):
			p = p[1:]
		default:
			return p
		}
	}
}

type IdentityService struct {
	store IdentityStore
	log   *zap.Logger
}

func NewIdentityService(store IdentityStore, log *zap.Logger) *IdentityService {
	return &IdentityService{store: store, log: log}
}

// Register links phone to a messaging identity. A later registration of the
// same number wins.
func (s *IdentityService) Register(ctx context.Context, phone, identity string) error {
	key := NormalizePhone(phone)
	if key == "" {
		return ErrInvalidPhone
	}
	if err := s.store.Put(ctx, key, identity); err != nil {
		s.log.Error("Failed to register identity", zap.String("phone", maskPhone(key)), zap.Error(err))
		return err
	}
	s.log.Info("Identity registered", zap.String("phone", maskPhone(key)), zap.String("identity", identity))
	return nil
}

// Lookup returns the identity registered for phone. The boolean is false when
// no identity is registered.
func (s *IdentityService) Lookup(ctx context.Context, phone string) (string, bool, error) {
	key := NormalizePhone(phone)
	if key == "" {
		return "", false, nil
	}
	identity, err := s.store.Get(ctx, key)
	if err != nil {
		if db.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return identity, true, nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
