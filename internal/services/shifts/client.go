package shifts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "shiftpay/internal/errors"
)

// httpProvider fetches shifts from the scheduling service's REST API.
type httpProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider creates a Provider backed by the scheduling service.
func NewHTTPProvider(baseURL, apiKey string) Provider {
	return &httpProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *httpProvider) GetShift(ctx context.Context, shiftID string) (*Shift, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/shifts/"+shiftID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build shift request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift %s: %w", shiftID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.ErrShiftNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("shift service returned status %d for %s", resp.StatusCode, shiftID)
	}

	var shift Shift
	if err := json.NewDecoder(resp.Body).Decode(&shift); err != nil {
		return nil, fmt.Errorf("failed to decode shift %s: %w", shiftID, err)
	}
	return &shift, nil
}

// StaticProvider serves shifts from a fixed map. Used in tests and local
// development where no scheduling service is running.
type StaticProvider struct {
	Shifts map[string]*Shift
}

func (p *StaticProvider) GetShift(ctx context.Context, shiftID string) (*Shift, error) {
	if shift, ok := p.Shifts[shiftID]; ok {
		return shift, nil
	}
	return nil, apperrors.ErrShiftNotFound
}
