package mailing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-claimform/internal/document"
	"github.com/goliatone/go-claimform/internal/storage"
)

type fakeDocs struct {
	err error
}

func (f fakeDocs) Compile(storage.User, storage.Address, storage.Address, []storage.Form) (document.Document, error) {
	if f.err != nil {
		return document.Document{}, f.err
	}
	return document.Document{Body: []byte("PACKET"), Names: []string{"intake.txt"}}, nil
}

type memLetters struct {
	mu      sync.Mutex
	letters []storage.Letter
	err     error
}

func (m *memLetters) PutLetter(_ context.Context, l storage.Letter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.letters = append(m.letters, l)
	return nil
}

func (m *memLetters) ListLetters(_ context.Context, userID string) ([]storage.Letter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.Letter
	for _, l := range m.letters {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

var (
	testUser = storage.User{ID: "u1", Email: "vet@example.com"}
	fromAddr = storage.Address{Name: "Ada", Street1: "1 Main St", City: "Springfield"}
	toAddr   = storage.Address{Name: "Intake", Street1: "PO Box 4444", City: "Janesville", Province: "WI", Postal: "53547", Country: "US"}
)

func TestHTTPClientCreateLetter(t *testing.T) {
	var captured LetterRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/letters", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "test_key", user)
		assert.Empty(t, pass)
		assert.Equal(t, APIVersion, r.Header.Get("Lob-Version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ltr_1","expected_delivery_date":"2024-06-01"}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL+"/", "test_key", time.Second, nil)
	require.NoError(t, err)

	resp, err := client.CreateLetter(context.Background(), LetterRequest{
		To:               WireAddress(toAddr),
		From:             WireAddress(fromAddr),
		DoubleSided:      true,
		AddressPlacement: "insert_blank_page",
	})
	require.NoError(t, err)
	assert.Equal(t, LetterResponse{ID: "ltr_1", ExpectedDeliveryDate: "2024-06-01"}, resp)
	assert.Equal(t, "PO Box 4444", captured.To.AddressLine1)
	assert.Equal(t, "", captured.From.AddressLine2)
	assert.Equal(t, "53547", captured.To.AddressZip)
	assert.True(t, captured.DoubleSided)
	assert.False(t, captured.Color)
}

func TestHTTPClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"message":"address_zip is invalid","status_code":422}}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, "test_key", time.Second, server.Client())
	require.NoError(t, err)

	_, err = client.CreateLetter(context.Background(), LetterRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "address_zip is invalid", apiErr.Message)
}

func TestNewHTTPClientValidates(t *testing.T) {
	_, err := NewHTTPClient("", "k", time.Second, nil)
	assert.Error(t, err)
	_, err = NewHTTPClient("https://example.test", " ", time.Second, nil)
	assert.Error(t, err)
}

func TestSendLetterStubMode(t *testing.T) {
	letters := &memLetters{}
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	svc, err := NewService(nil, fakeDocs{}, letters, WithClock(func() time.Time { return at }))
	require.NoError(t, err)
	assert.True(t, svc.TestMode())

	letter, err := svc.SendLetter(context.Background(), testUser, fromAddr, toAddr, []storage.Form{{Key: "intake"}})
	require.NoError(t, err)
	assert.Equal(t, "u1", letter.UserID)
	assert.Equal(t, toAddr, letter.To)
	assert.Equal(t, fromAddr, letter.From)
	assert.Equal(t, []string{"intake.txt"}, letter.Documents)
	assert.Empty(t, letter.VendorID)
	assert.True(t, letter.CreatedAt.Equal(at))

	stored, err := letters.ListLetters(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestSendLetterFailures(t *testing.T) {
	ctx := context.Background()

	svc, err := NewService(nil, fakeDocs{err: errors.New("render")}, &memLetters{})
	require.NoError(t, err)
	_, err = svc.SendLetter(ctx, testUser, fromAddr, toAddr, nil)
	assert.ErrorContains(t, err, "compile documents")

	letters := &memLetters{err: errors.New("disk full")}
	svc, err = NewService(nil, fakeDocs{}, letters)
	require.NoError(t, err)
	_, err = svc.SendLetter(ctx, testUser, fromAddr, toAddr, nil)
	assert.ErrorContains(t, err, "record letter")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()
	client, err := NewHTTPClient(server.URL, "k", time.Second, nil)
	require.NoError(t, err)
	letters = &memLetters{}
	svc, err = NewService(client, fakeDocs{}, letters)
	require.NoError(t, err)
	assert.False(t, svc.TestMode())
	_, err = svc.SendLetter(ctx, testUser, fromAddr, toAddr, nil)
	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Empty(t, letters.letters, "failed sends are not recorded")
}

func TestNewServiceValidates(t *testing.T) {
	_, err := NewService(nil, nil, &memLetters{})
	assert.Error(t, err)
	_, err = NewService(nil, fakeDocs{}, nil)
	assert.Error(t, err)
}
