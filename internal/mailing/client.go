package mailing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-claimform/internal/storage"
)

// APIVersion is sent with every request to pin the mailing API behaviour.
const APIVersion = "2016-06-30"

// AddressFields is the wire shape of a postal address.
type AddressFields struct {
	Name           string `json:"name"`
	AddressLine1   string `json:"address_line1"`
	AddressLine2   string `json:"address_line2"`
	AddressCity    string `json:"address_city"`
	AddressState   string `json:"address_state"`
	AddressZip     string `json:"address_zip"`
	AddressCountry string `json:"address_country"`
}

// WireAddress converts a stored address. Missing parts are sent as empty
// strings.
func WireAddress(a storage.Address) AddressFields {
	return AddressFields{
		Name:           a.Name,
		AddressLine1:   a.Street1,
		AddressLine2:   a.Street2,
		AddressCity:    a.City,
		AddressState:   a.Province,
		AddressZip:     a.Postal,
		AddressCountry: a.Country,
	}
}

// LetterRequest is the body of a create-letter call.
type LetterRequest struct {
	Description      string        `json:"description"`
	To               AddressFields `json:"to"`
	From             AddressFields `json:"from"`
	File             string        `json:"file"`
	DoubleSided      bool          `json:"double_sided"`
	Color            bool          `json:"color"`
	AddressPlacement string        `json:"address_placement"`
}

// LetterResponse is the subset of the create-letter reply the service keeps.
type LetterResponse struct {
	ID                   string `json:"id"`
	ExpectedDeliveryDate string `json:"expected_delivery_date"`
}

// Client creates letters with a mailing provider.
type Client interface {
	CreateLetter(ctx context.Context, req LetterRequest) (LetterResponse, error)
}

// APIError is returned for non-2xx replies.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mailing: api returned %d: %s", e.StatusCode, e.Message)
}

// HTTPClient talks to the mailing API over HTTPS with basic auth.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient builds a client for baseURL. A nil httpClient gets a client
// with timeout.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, httpClient *http.Client) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("mailing: base url is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("mailing: api key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{baseURL: baseURL, apiKey: apiKey, http: httpClient}, nil
}

// CreateLetter posts req to /v1/letters.
func (c *HTTPClient) CreateLetter(ctx context.Context, req LetterRequest) (LetterResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return LetterResponse{}, fmt.Errorf("mailing: encode letter: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/letters", bytes.NewReader(body))
	if err != nil {
		return LetterResponse{}, fmt.Errorf("mailing: build request: %w", err)
	}
	httpReq.SetBasicAuth(c.apiKey, "")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Lob-Version", APIVersion)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return LetterResponse{}, fmt.Errorf("mailing: send letter: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return LetterResponse{}, fmt.Errorf("mailing: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return LetterResponse{}, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(payload)}
	}

	var out LetterResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return LetterResponse{}, fmt.Errorf("mailing: decode response: %w", err)
	}
	return out, nil
}

func errorMessage(payload []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	msg := strings.TrimSpace(string(payload))
	if msg == "" {
		return "empty response"
	}
	return msg
}

// StubClient accepts every letter and returns an empty response. It stands
// in for the provider in local and test environments.
type StubClient struct{}

// CreateLetter implements Client.
func (StubClient) CreateLetter(ctx context.Context, _ LetterRequest) (LetterResponse, error) {
	if err := ctx.Err(); err != nil {
		return LetterResponse{}, err
	}
	return LetterResponse{}, nil
}
