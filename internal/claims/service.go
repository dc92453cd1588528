// Package claims manages a user's claim and the forms filed with it.
package claims

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-claimform/internal/storage"
	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/progress"
	"github.com/goliatone/go-claimform/pkg/template"
)

// Mailer sends the forms of a claim.
type Mailer interface {
	SendLetter(ctx context.Context, user storage.User, from, to storage.Address, forms []storage.Form) (storage.Letter, error)
}

// Service coordinates claims, templates and progress.
type Service struct {
	claims    storage.ClaimStore
	users     storage.UserStore
	templates *template.Registry
	progress  *progress.Evaluator
	mailer    Mailer
	formKeys  []string
	logger    *slog.Logger
	now       func() time.Time
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

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMailer enables Submit.
func WithMailer(m Mailer) Option {
	return func(s *Service) {
		s.mailer = m
	}
}

// WithUsers gives Submit access to the sender's account.
func WithUsers(users storage.UserStore) Option {
	return func(s *Service) {
		s.users = users
	}
}

// WithDefaultForms sets the form keys seeded into new claims when the caller
// passes none.
func WithDefaultForms(keys ...string) Option {
	return func(s *Service) {
		s.formKeys = append([]string(nil), keys...)
	}
}

// WithEvaluator replaces the progress evaluator.
func WithEvaluator(e *progress.Evaluator) Option {
	return func(s *Service) {
		if e != nil {
			s.progress = e
		}
	}
}

// NewService builds a Service over store and templates.
func NewService(store storage.ClaimStore, templates *template.Registry, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("claims: claim store is required")
	}
	s := &Service{
		claims:    store,
		templates: templates,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.progress == nil {
		s.progress = progress.New(progress.WithLogger(s.logger))
	}
	return s, nil
}

// Templates returns the registry the service evaluates against.
func (s *Service) Templates() *template.Registry {
	return s.templates
}

// FindIncompleteClaimOrCreate returns the user's incomplete claim. When there
// is none, it creates one holding an empty form per key, each seeded with the
// progress of an unanswered form. Keys without an installed template are
// seeded with progress.Baseline().
func (s *Service) FindIncompleteClaimOrCreate(ctx context.Context, userID string, formKeys []string) (storage.Claim, error) {
	claim, err := s.claims.FindIncompleteClaim(ctx, userID)
	if err == nil {
		return claim, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return storage.Claim{}, fmt.Errorf("claims: find incomplete claim: %w", err)
	}

	if formKeys == nil {
		formKeys = s.formKeys
	}

	now := s.now().UTC()
	claim = storage.Claim{
		ID:        uuid.NewString(),
		UserID:    userID,
		State:     storage.ClaimIncomplete,
		CreatedAt: now,
		UpdatedAt: now,
	}

	forms := make([]storage.Form, 0, len(formKeys))
	for _, key := range formKeys {
		tpl, _ := s.templates.Form(key)
		summary, err := s.progress.Compute(tpl, answers.Set{})
		if err != nil {
			return storage.Claim{}, fmt.Errorf("claims: seed form %q: %w", key, err)
		}
		s.logger.Debug("creating form", "claim_id", claim.ID, "form", key)
		forms = append(forms, storage.Form{
			ID:        uuid.NewString(),
			Key:       key,
			UserID:    userID,
			ClaimID:   claim.ID,
			Responses: answers.Set{},
			Summary:   summary,
			UpdatedAt: now,
		})
	}

	if err := s.claims.CreateClaimWithForms(ctx, claim, forms); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Lost a race with a concurrent request for the same user.
			return s.claims.FindIncompleteClaim(ctx, userID)
		}
		return storage.Claim{}, fmt.Errorf("claims: create claim: %w", err)
	}

	s.logger.Info("created claim", "claim_id", claim.ID, "user_id", userID, "forms", len(forms))
	return claim, nil
}

// SetClaimState moves a claim to state.
func (s *Service) SetClaimState(ctx context.Context, claimID string, state storage.ClaimState) error {
	if _, err := storage.ParseClaimState(string(state)); err != nil {
		return fmt.Errorf("claims: %w", err)
	}
	err := s.claims.SetClaimState(ctx, claimID, state, s.now().UTC())
	if errors.Is(err, storage.ErrNotFound) {
		return ErrClaimNotFound
	}
	if errors.Is(err, storage.ErrConflict) {
		return ErrClaimConflict
	}
	if err != nil {
		return fmt.Errorf("claims: set state: %w", err)
	}
	return nil
}

// Claim loads a claim owned by userID.
func (s *Service) Claim(ctx context.Context, userID, claimID string) (storage.Claim, error) {
	claim, err := s.claims.GetClaim(ctx, claimID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Claim{}, ErrClaimNotFound
	}
	if err != nil {
		return storage.Claim{}, fmt.Errorf("claims: get claim: %w", err)
	}
	if claim.UserID != userID {
		return storage.Claim{}, ErrClaimNotFound
	}
	return claim, nil
}

// Forms lists the forms of a claim owned by userID.
func (s *Service) Forms(ctx context.Context, userID, claimID string) ([]storage.Form, error) {
	if _, err := s.Claim(ctx, userID, claimID); err != nil {
		return nil, err
	}
	forms, err := s.claims.ListForms(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("claims: list forms: %w", err)
	}
	return forms, nil
}

// SaveResponses replaces the responses of one form and recomputes its
// progress.
func (s *Service) SaveResponses(ctx context.Context, userID, claimID, formKey string, responses answers.Set) (storage.Form, error) {
	claim, err := s.Claim(ctx, userID, claimID)
	if err != nil {
		return storage.Form{}, err
	}
	if claim.State != storage.ClaimIncomplete {
		return storage.Form{}, ErrClaimClosed
	}

	form, err := s.claims.GetForm(ctx, claimID, formKey)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Form{}, ErrFormNotFound
	}
	if err != nil {
		return storage.Form{}, fmt.Errorf("claims: get form: %w", err)
	}

	if responses == nil {
		responses = answers.Set{}
	}
	tpl, _ := s.templates.Form(formKey)
	summary, err := s.progress.Compute(tpl, responses)
	if err != nil {
		return storage.Form{}, fmt.Errorf("claims: form %q: %w", formKey, err)
	}

	form.Responses = responses.Clone()
	form.Summary = summary
	form.UpdatedAt = s.now().UTC()
	if err := s.claims.UpdateForm(ctx, form); err != nil {
		return storage.Form{}, fmt.Errorf("claims: save form: %w", err)
	}
	return form, nil
}

// ClaimProgress aggregates the stored summaries of a claim's forms.
type ClaimProgress struct {
	Total progress.Summary            `json:"total"`
	Forms map[string]progress.Summary `json:"forms"`
}

// Progress reports per-form and total progress of a claim.
func (s *Service) Progress(ctx context.Context, userID, claimID string) (ClaimProgress, error) {
	forms, err := s.Forms(ctx, userID, claimID)
	if err != nil {
		return ClaimProgress{}, err
	}
	out := ClaimProgress{Forms: make(map[string]progress.Summary, len(forms))}
	for _, form := range forms {
		out.Forms[form.Key] = form.Summary
		out.Total = out.Total.Add(form.Summary)
	}
	return out, nil
}

// Submit mails the claim's forms and marks the claim submitted. The claim is
// marked before the letter is sent so that concurrent submits mail at most
// once; a failed send moves it back to incomplete.
func (s *Service) Submit(ctx context.Context, userID, claimID string, to, from storage.Address) (storage.Letter, error) {
	if s.mailer == nil || s.users == nil {
		return storage.Letter{}, fmt.Errorf("claims: submit is not configured")
	}
	claim, err := s.Claim(ctx, userID, claimID)
	if err != nil {
		return storage.Letter{}, err
	}
	if claim.State != storage.ClaimIncomplete {
		return storage.Letter{}, ErrClaimClosed
	}

	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Letter{}, ErrUserNotFound
	}
	if err != nil {
		return storage.Letter{}, fmt.Errorf("claims: get user: %w", err)
	}

	err = s.claims.TransitionClaimState(ctx, claimID, storage.ClaimIncomplete, storage.ClaimSubmitted, s.now().UTC())
	switch {
	case errors.Is(err, storage.ErrStateChanged):
		return storage.Letter{}, ErrClaimClosed
	case errors.Is(err, storage.ErrNotFound):
		return storage.Letter{}, ErrClaimNotFound
	case err != nil:
		return storage.Letter{}, fmt.Errorf("claims: mark submitted: %w", err)
	}

	forms, err := s.claims.ListForms(ctx, claimID)
	if err != nil {
		s.reopen(ctx, claimID)
		return storage.Letter{}, fmt.Errorf("claims: list forms: %w", err)
	}

	letter, err := s.mailer.SendLetter(ctx, user, from, to, forms)
	if err != nil {
		s.reopen(ctx, claimID)
		return storage.Letter{}, fmt.Errorf("claims: submit: %w", err)
	}

	s.logger.Info("submitted claim", "claim_id", claimID, "user_id", userID, "letter_id", letter.ID)
	return letter, nil
}

// reopen undoes the submitted mark after a failed send. It runs even when
// ctx was cancelled.
func (s *Service) reopen(ctx context.Context, claimID string) {
	err := s.claims.TransitionClaimState(context.WithoutCancel(ctx), claimID,
		storage.ClaimSubmitted, storage.ClaimIncomplete, s.now().UTC())
	if err != nil {
		s.logger.Error("reopen claim after failed submit", "claim_id", claimID, "error", err)
	}
}
