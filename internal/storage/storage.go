// Package storage defines the persisted records of the claim service and the
// Store contract implemented by the sqlite package.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/progress"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("record already exists")
	// ErrStateChanged is returned by conditional transitions when the record
	// is no longer in the expected state.
	ErrStateChanged = errors.New("record state changed")
)

// UserState tracks whether an account can sign in.
type UserState string

const (
	UserActive   UserState = "active"
	UserInactive UserState = "inactive"
)

// ClaimState is the lifecycle state of a claim.
type ClaimState string

const (
	ClaimIncomplete ClaimState = "incomplete"
	ClaimSubmitted  ClaimState = "submitted"
	ClaimDiscarded  ClaimState = "discarded"
)

// ParseClaimState validates a state name.
func ParseClaimState(s string) (ClaimState, error) {
	switch state := ClaimState(s); state {
	case ClaimIncomplete, ClaimSubmitted, ClaimDiscarded:
		return state, nil
	default:
		return "", fmt.Errorf("unknown claim state %q", s)
	}
}

// User is an account holder.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	State        UserState
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Claim groups the forms a user files together.
type Claim struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	State     ClaimState `json:"state"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Form holds one template's responses within a claim together with the
// progress summary computed when the responses were last saved.
type Form struct {
	ID        string           `json:"id"`
	Key       string           `json:"key"`
	UserID    string           `json:"userId"`
	ClaimID   string           `json:"claimId"`
	Responses answers.Set      `json:"responses"`
	Summary   progress.Summary `json:"progress"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Address is a postal address. Empty parts are allowed.
type Address struct {
	Name     string `json:"name"`
	Street1  string `json:"street1"`
	Street2  string `json:"street2"`
	City     string `json:"city"`
	Province string `json:"province"`
	Postal   string `json:"postal"`
	Country  string `json:"country"`
}

// Letter records a mailing sent on behalf of a user.
type Letter struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	VendorID         string    `json:"vendorId"`
	ExpectedDelivery string    `json:"expectedDeliveryDate"`
	To               Address   `json:"toAddress"`
	From             Address   `json:"fromAddress"`
	Documents        []string  `json:"documents"`
	CreatedAt        time.Time `json:"createdAt"`
}

// UserStore persists accounts.
type UserStore interface {
	PutUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (User, error)
	// FindActiveUserByEmail returns ErrNotFound when no active account uses
	// email.
	FindActiveUserByEmail(ctx context.Context, email string) (User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
}

// ClaimStore persists claims and their forms.
type ClaimStore interface {
	// FindIncompleteClaim returns ErrNotFound when the user has no
	// incomplete claim.
	FindIncompleteClaim(ctx context.Context, userID string) (Claim, error)
	GetClaim(ctx context.Context, id string) (Claim, error)
	// CreateClaimWithForms inserts the claim and every form in one
	// transaction.
	CreateClaimWithForms(ctx context.Context, claim Claim, forms []Form) error
	SetClaimState(ctx context.Context, id string, state ClaimState, at time.Time) error
	// TransitionClaimState moves a claim from one state to another in a
	// single statement. It returns ErrStateChanged when the claim exists but
	// is not in from.
	TransitionClaimState(ctx context.Context, id string, from, to ClaimState, at time.Time) error
	ListForms(ctx context.Context, claimID string) ([]Form, error)
	GetForm(ctx context.Context, claimID, key string) (Form, error)
	UpdateForm(ctx context.Context, form Form) error
}

// LetterStore persists sent letters.
type LetterStore interface {
	PutLetter(ctx context.Context, letter Letter) error
	ListLetters(ctx context.Context, userID string) ([]Letter, error)
}

// Store is the full persistence contract of the service.
type Store interface {
	UserStore
	ClaimStore
	LetterStore
	Close() error
}
