package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

type otpEntry struct {
	code      string
	expiresAt time.Time
}

type otpStore struct {
	mutex sync.Mutex
	codes map[string]otpEntry
}

// NewOTPStore returns a map-backed OTP store for tests and local
// development. Production uses the redis implementation.
func NewOTPStore() user.OTPStore {
	return &otpStore{codes: make(map[string]otpEntry)}
}

func (s *otpStore) SetOTP(_ context.Context, email, code string, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.codes[email] = otpEntry{code: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *otpStore) GetOTP(_ context.Context, email string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.codes[email]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.codes, email)
		return "", user.ErrInvalidOTP
	}
	return entry.code, nil
}

func (s *otpStore) DeleteOTP(_ context.Context, email string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.codes, email)
	return nil
}
