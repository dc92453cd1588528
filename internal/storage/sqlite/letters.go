package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-claimform/internal/storage"
)

// PutLetter records a sent letter.
func (s *Store) PutLetter(ctx context.Context, letter storage.Letter) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	to, err := json.Marshal(letter.To)
	if err != nil {
		return fmt.Errorf("encode to address: %w", err)
	}
	from, err := json.Marshal(letter.From)
	if err != nil {
		return fmt.Errorf("encode from address: %w", err)
	}
	docs := letter.Documents
	if docs == nil {
		docs = []string{}
	}
	documents, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}

	if _, err := s.sqlDB.ExecContext(ctx, `INSERT INTO letters
    (id, user_id, vendor_id, expected_delivery, to_address, from_address, documents, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		letter.ID, letter.UserID, letter.VendorID, letter.ExpectedDelivery,
		string(to), string(from), string(documents), toMillis(letter.CreatedAt),
	); err != nil {
		return fmt.Errorf("put letter: %w", err)
	}
	return nil
}

// ListLetters returns a user's letters, newest first.
func (s *Store) ListLetters(ctx context.Context, userID string) ([]storage.Letter, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, user_id, vendor_id, expected_delivery,
    to_address, from_address, documents, created_at
FROM letters WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list letters: %w", err)
	}
	defer rows.Close()

	var out []storage.Letter
	for rows.Next() {
		var (
			l                   storage.Letter
			to, from, documents string
			createdAt           int64
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.VendorID, &l.ExpectedDelivery, &to, &from, &documents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan letter: %w", err)
		}
		if err := json.Unmarshal([]byte(to), &l.To); err != nil {
			return nil, fmt.Errorf("decode to address: %w", err)
		}
		if err := json.Unmarshal([]byte(from), &l.From); err != nil {
			return nil, fmt.Errorf("decode from address: %w", err)
		}
		if err := json.Unmarshal([]byte(documents), &l.Documents); err != nil {
			return nil, fmt.Errorf("decode documents: %w", err)
		}
		l.CreatedAt = fromMillis(createdAt)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list letters: %w", err)
	}
	return out, nil
}
