// Package decoder talks to the external VIN decoding service.
package decoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brainforcegit/vin-bot/internal/utils"

	"go.uber.org/zap"
)

var ErrMalformedResponse = errors.New("malformed decoder response")

// Attribute is one named value returned by the decoder, in decoder order.
type Attribute struct {
	Name  string
	Value string
}

// VPIC decodes VINs with the NHTSA vPIC DecodeVin endpoint.
type VPIC struct {
	BaseURL string
	client  *http.Client
}

func NewVPIC(baseURL string, timeout time.Duration, log *zap.Logger) *VPIC {
	return &VPIC{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  utils.NewHTTPClient(timeout, log),
	}
}

type vpicResponse struct {
	Count          int          `json:"Count"`
	Message        string       `json:"Message"`
	SearchCriteria string       `json:"SearchCriteria"`
	Results        []vpicResult `json:"Results"`
}

type vpicResult struct {
	Value    *string `json:"Value"`
	Variable string  `json:"Variable"`
}

// Decode returns the attributes vPIC reports for vin.
func (d *VPIC) Decode(ctx context.Context, vin string) ([]Attribute, error) {
	endpoint := fmt.Sprintf("%s/DecodeVin/%s?format=json", d.BaseURL, url.PathEscape(vin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("decoder returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload vpicResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.Results == nil {
		return nil, fmt.Errorf("%w: no Results", ErrMalformedResponse)
	}

	attrs := make([]Attribute, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.Value == nil {
			continue
		}
		attrs = append(attrs, Attribute{Name: r.Variable, Value: *r.Value})
	}
	return attrs, nil
}
