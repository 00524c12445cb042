// Package session serializes access to the market for concurrent callers and
// ties the single open market session to an opaque id.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fastprodman/vapor/internal/market"
	"github.com/google/uuid"
)

var ErrSessionExpired = errors.New("session is no longer active")

type Session struct {
	ID       string
	Username string
}

type Service struct {
	mu      sync.Mutex
	market  *market.Market
	current Session
}

func New(m *market.Market) *Service {
	return &Service{market: m}
}

// Login opens the market session and returns its id.
func (s *Service) Login(username string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.market.Login(username)
	if err != nil {
		return Session{}, err
	}

	s.current = Session{ID: uuid.NewString(), Username: username}

	slog.Info("session opened", "username", username, "session", s.current.ID)

	return s.current, nil
}

// Logout flushes the session to the ledger. When the flush fails the session
// stays open and the same id can retry.
func (s *Service) Logout(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.check(id)
	if err != nil {
		return err
	}

	err = s.market.Logout(ctx)
	if err != nil {
		slog.Error("logout failed, session kept open",
			"username", s.current.Username, "session", id, "error", err)

		return err
	}

	slog.Info("session closed", "username", s.current.Username, "session", id)

	s.current = Session{}

	return nil
}

// Do runs fn against the market on behalf of session id.
func (s *Service) Do(id string, fn func(m *market.Market) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.check(id)
	if err != nil {
		return err
	}

	return fn(s.market)
}

// View runs fn against the market without requiring a session. fn must not
// change state.
func (s *Service) View(fn func(m *market.Market)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.market)
}

// Check reports whether id is still the open session and returns its user.
func (s *Service) Check(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.check(id)
	if err != nil {
		return "", err
	}

	return s.current.Username, nil
}

// Close flushes whatever session is open. Used on shutdown.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.ID == "" {
		return nil
	}

	err := s.market.Logout(ctx)
	if err != nil {
		return fmt.Errorf("close session of %q: %w", s.current.Username, err)
	}

	slog.Info("open session flushed on shutdown", "username", s.current.Username)

	s.current = Session{}

	return nil
}

func (s *Service) check(id string) error {
	if s.current.ID == "" {
		return market.ErrNotLoggedIn
	}

	if id != s.current.ID {
		return ErrSessionExpired
	}

	return nil
}
