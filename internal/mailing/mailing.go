// Package mailing sends compiled claim packets by postal mail.
package mailing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-claimform/internal/document"
	"github.com/goliatone/go-claimform/internal/storage"
)

// DocumentCompiler turns forms into the mailed document.
type DocumentCompiler interface {
	Compile(user storage.User, from, to storage.Address, forms []storage.Form) (document.Document, error)
}

// Service renders, mails and records letters.
type Service struct {
	client   Client
	docs     DocumentCompiler
	letters  storage.LetterStore
	testMode bool
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the letter timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds a Service. A nil client selects StubClient and marks the
// service as running in test mode.
func NewService(client Client, docs DocumentCompiler, letters storage.LetterStore, opts ...Option) (*Service, error) {
	if docs == nil {
		return nil, fmt.Errorf("mailing: document compiler is required")
	}
	if letters == nil {
		return nil, fmt.Errorf("mailing: letter store is required")
	}
	s := &Service{
		client:  client,
		docs:    docs,
		letters: letters,
		logger:  slog.Default(),
		now:     time.Now,
	}
	if client == nil {
		s.client = StubClient{}
		s.testMode = true
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// TestMode reports whether letters are only simulated.
func (s *Service) TestMode() bool {
	return s.testMode
}

// SendLetter compiles forms into one document, mails it from the user's
// return address to the recipient and records the letter.
func (s *Service) SendLetter(ctx context.Context, user storage.User, from, to storage.Address, forms []storage.Form) (storage.Letter, error) {
	s.logger.Info("send letter", "user_id", user.ID, "forms", len(forms), "test_mode", s.testMode)

	doc, err := s.docs.Compile(user, from, to, forms)
	if err != nil {
		s.logger.Error("document rendering failed", "user_id", user.ID, "error", err)
		return storage.Letter{}, fmt.Errorf("mailing: compile documents: %w", err)
	}

	resp, err := s.client.CreateLetter(ctx, LetterRequest{
		Description:      fmt.Sprintf("Claim packet for %s", user.Email),
		To:               WireAddress(to),
		From:             WireAddress(from),
		File:             string(doc.Body),
		DoubleSided:      true,
		Color:            false,
		AddressPlacement: "insert_blank_page",
	})
	if err != nil {
		s.logger.Error("mailing api failed", "user_id", user.ID, "error", err)
		return storage.Letter{}, err
	}

	letter := storage.Letter{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		VendorID:         resp.ID,
		ExpectedDelivery: resp.ExpectedDeliveryDate,
		To:               to,
		From:             from,
		Documents:        doc.Names,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.letters.PutLetter(ctx, letter); err != nil {
		s.logger.Error("letter record failed", "user_id", user.ID, "error", err)
		return storage.Letter{}, fmt.Errorf("mailing: record letter: %w", err)
	}
	return letter, nil
}
