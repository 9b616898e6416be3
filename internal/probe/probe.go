// Package probe checks the external CEP lookup service the clinic
// application uses for address autofill.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Standard errors.
var (
	ErrInvalidCEP = errors.New("invalid CEP")
)

// cepRe accepts the two formats the front desk types: 01310100 and 01310-100.
var cepRe = regexp.MustCompile(`^\d{5}-?\d{3}$`)

// Defaults.
const (
	DefaultTimeout = 10 * time.Second
	// DefaultRate keeps the probe polite toward the public service.
	DefaultRate = rate.Limit(2)
)

// Prober issues lookups against a ViaCEP-compatible service.
type Prober struct {
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter
}

// New returns a Prober with the default timeout and rate limit.
func New(baseURL string) *Prober {
	return &Prober{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: DefaultTimeout},
		Limiter: rate.NewLimiter(DefaultRate, 1),
	}
}

// Result is the outcome of probing one CEP.
type Result struct {
	CEP        string        `json:"cep"`
	OK         bool          `json:"ok"`
	StatusCode int           `json:"status_code,omitempty"`
	Latency    time.Duration `json:"latency_ns,omitempty"`
	Street     string        `json:"street,omitempty"`
	City       string        `json:"city,omitempty"`
	State      string        `json:"state,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// viaCEPResponse is the subset of the upstream payload the probe reports.
// The service signals an unknown CEP with {"erro": true} and HTTP 200.
type viaCEPResponse struct {
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	Erro       bool   `json:"erro"`
}

// NormalizeCEP validates and strips formatting from a CEP.
func NormalizeCEP(cep string) (string, error) {
	trimmed := strings.TrimSpace(cep)
	if !cepRe.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCEP, cep)
	}
	return strings.ReplaceAll(trimmed, "-", ""), nil
}

// Lookup probes a single CEP, waiting on the rate limiter first.
func (p *Prober) Lookup(ctx context.Context, cep string) Result {
	normalized, err := NormalizeCEP(cep)
	if err != nil {
		return Result{CEP: cep, Error: err.Error()}
	}
	result := Result{CEP: normalized}

	if err := p.Limiter.Wait(ctx); err != nil {
		result.Error = err.Error()
		return result
	}

	url := fmt.Sprintf("%s/ws/%s/json/", p.BaseURL, normalized)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	resp, err := p.Client.Do(req)
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return result
	}

	var payload viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		result.Error = fmt.Sprintf("decode response: %v", err)
		return result
	}
	if payload.Erro {
		result.Error = "CEP not found upstream"
		return result
	}

	result.OK = true
	result.Street = payload.Logradouro
	result.City = payload.Localidade
	result.State = payload.UF
	return result
}

// LookupAll probes CEPs sequentially. It never aborts early: the point of
// the probe is the full picture, one flaky lookup included.
func (p *Prober) LookupAll(ctx context.Context, ceps []string) []Result {
	results := make([]Result, 0, len(ceps))
	for _, cep := range ceps {
		results = append(results, p.Lookup(ctx, cep))
	}
	return results
}
