package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-claimform/internal/storage"
	"github.com/goliatone/go-claimform/pkg/answers"
)

const claimColumns = `id, user_id, state, created_at, updated_at`

const formColumns = `id, form_key, user_id, claim_id, responses,
    required_questions, optional_questions, answered_required, answered_optional, updated_at`

// FindIncompleteClaim returns the user's single incomplete claim.
func (s *Store) FindIncompleteClaim(ctx context.Context, userID string) (storage.Claim, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Claim{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE user_id = ? AND state = ?`,
		userID, string(storage.ClaimIncomplete),
	)
	c, err := scanClaim(row)
	if err != nil {
		return storage.Claim{}, notFound(err)
	}
	return c, nil
}

// GetClaim loads a claim by id.
func (s *Store) GetClaim(ctx context.Context, id string) (storage.Claim, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Claim{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = ?`, id)
	c, err := scanClaim(row)
	if err != nil {
		return storage.Claim{}, notFound(err)
	}
	return c, nil
}

// CreateClaimWithForms inserts claim and forms atomically. A second
// incomplete claim for the same user yields storage.ErrConflict.
func (s *Store) CreateClaimWithForms(ctx context.Context, claim storage.Claim, forms []storage.Form) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(claim.ID) == "" {
		return fmt.Errorf("claim id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO claims (`+claimColumns+`) VALUES (?, ?, ?, ?, ?)`,
		claim.ID, claim.UserID, string(claim.State), toMillis(claim.CreatedAt), toMillis(claim.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("put claim: %w", err)
	}

	for _, form := range forms {
		responses, err := encodeResponses(form.Responses)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO forms (`+formColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			form.ID, form.Key, form.UserID, claim.ID, responses,
			form.Summary.RequiredQuestions, form.Summary.OptionalQuestions,
			form.Summary.AnsweredRequired, form.Summary.AnsweredOptional,
			toMillis(form.UpdatedAt),
		); err != nil {
			return fmt.Errorf("put form %s: %w", form.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit claim: %w", err)
	}
	return nil
}

// SetClaimState moves a claim to state.
func (s *Store) SetClaimState(ctx context.Context, id string, state storage.ClaimState, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE claims SET state = ?, updated_at = ? WHERE id = ?`,
		string(state), toMillis(at), id,
	)
	if isUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("set claim state: %w", err)
	}
	return requireRow(res)
}

// TransitionClaimState moves a claim to state to only while it is in from.
func (s *Store) TransitionClaimState(ctx context.Context, id string, from, to storage.ClaimState, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE claims SET state = ?, updated_at = ? WHERE id = ? AND state = ?`,
		string(to), toMillis(at), id, string(from),
	)
	if isUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("transition claim state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := s.GetClaim(ctx, id); err != nil {
		return err
	}
	return storage.ErrStateChanged
}

// ListForms returns a claim's forms ordered by key.
func (s *Store) ListForms(ctx context.Context, claimID string) ([]storage.Form, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+formColumns+` FROM forms WHERE claim_id = ? ORDER BY form_key`, claimID)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	var out []storage.Form
	for rows.Next() {
		form, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		out = append(out, form)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return out, nil
}

// GetForm loads the form with key inside a claim.
func (s *Store) GetForm(ctx context.Context, claimID, key string) (storage.Form, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Form{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+formColumns+` FROM forms WHERE claim_id = ? AND form_key = ?`, claimID, key)
	form, err := scanForm(row)
	if err != nil {
		return storage.Form{}, notFound(err)
	}
	return form, nil
}

// UpdateForm stores new responses and their summary.
func (s *Store) UpdateForm(ctx context.Context, form storage.Form) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	responses, err := encodeResponses(form.Responses)
	if err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `UPDATE forms SET responses = ?,
    required_questions = ?, optional_questions = ?, answered_required = ?, answered_optional = ?,
    updated_at = ?
WHERE claim_id = ? AND form_key = ?`,
		responses,
		form.Summary.RequiredQuestions, form.Summary.OptionalQuestions,
		form.Summary.AnsweredRequired, form.Summary.AnsweredOptional,
		toMillis(form.UpdatedAt), form.ClaimID, form.Key,
	)
	if err != nil {
		return fmt.Errorf("update form: %w", err)
	}
	return requireRow(res)
}

func scanClaim(row rowScanner) (storage.Claim, error) {
	var (
		c         storage.Claim
		state     string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.UserID, &state, &createdAt, &updatedAt); err != nil {
		return storage.Claim{}, err
	}
	c.State = storage.ClaimState(state)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

func scanForm(row rowScanner) (storage.Form, error) {
	var (
		f         storage.Form
		responses string
		updatedAt int64
	)
	if err := row.Scan(&f.ID, &f.Key, &f.UserID, &f.ClaimID, &responses,
		&f.Summary.RequiredQuestions, &f.Summary.OptionalQuestions,
		&f.Summary.AnsweredRequired, &f.Summary.AnsweredOptional,
		&updatedAt,
	); err != nil {
		return storage.Form{}, err
	}
	set := answers.Set{}
	if err := json.Unmarshal([]byte(responses), &set); err != nil {
		return storage.Form{}, fmt.Errorf("decode responses: %w", err)
	}
	f.Responses = set
	f.UpdatedAt = fromMillis(updatedAt)
	return f, nil
}

func encodeResponses(set answers.Set) (string, error) {
	if set == nil {
		return "{}", nil
	}
	data, err := json.Marshal(set)
	if err != nil {
		return "", fmt.Errorf("encode responses: %w", err)
	}
	return string(data), nil
}
