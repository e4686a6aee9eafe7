// Package candidates asks generative providers, in priority order, for
// place names worth visiting and enforces the JSON reply contract.
package candidates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/metrics"
	"travel-planner/internal/common/validation"
	"travel-planner/internal/providers/llm"
)

const SystemPrompt = "You are a travel planner agent. " +
	"Return ONLY JSON matching this schema: " +
	`{"pois": [{"name": string, "category": string}]} ` +
	"No commentary. No markdown. No code fences."

type Config struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	CallTimeout time.Duration
}

// Request carries what the providers see about the trip.
type Request struct {
	City        string
	Preferences []string
	Days        int
	Budget      float64
	Context     string
}

type requirements struct {
	Count                   int  `json:"count"`
	Deduplicate             bool `json:"deduplicate"`
	HighQuality             bool `json:"high_quality"`
	CategoryFromPreferences bool `json:"category_from_preferences"`
}

type promptPayload struct {
	City         string       `json:"city"`
	Preferences  []string     `json:"preferences"`
	Days         int          `json:"days"`
	Budget       float64      `json:"budget"`
	Context      string       `json:"context,omitempty"`
	Requirements requirements `json:"requirements"`
}

type Router struct {
	source llm.Source
	cfg    Config
	ledger *metrics.Ledger
	log    logger.Logger
}

func NewRouter(source llm.Source, cfg Config, ledger *metrics.Ledger, log logger.Logger) *Router {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Router{
		source: source,
		cfg:    cfg,
		ledger: ledger,
		log:    log.WithFields(map[string]interface{}{"component": "candidate_router"}),
	}
}

// Want is the number of candidates requested for a trip of days days.
func Want(days int) int {
	if n := days*3 + 2; n > 8 {
		return n
	}
	return 8
}

func buildPayload(req Request) ([]byte, error) {
	want := Want(req.Days)
	days := req.Days
	if want/3 > days {
		days = want / 3
	}
	prefs := make([]string, 0, len(req.Preferences))
	for _, p := range req.Preferences {
		prefs = append(prefs, strings.ToLower(p))
	}
	return json.Marshal(promptPayload{
		City:        req.City,
		Preferences: prefs,
		Days:        days,
		Budget:      req.Budget,
		Context:     req.Context,
		Requirements: requirements{
			Count:                   want,
			Deduplicate:             true,
			HighQuality:             true,
			CategoryFromPreferences: true,
		},
	})
}

// Generate returns deduplicated candidate names from the first provider
// whose reply conforms and is non-empty. When every provider fails the
// error is PROVIDER_EXHAUSTED wrapping the last failure.
func (r *Router) Generate(ctx context.Context, req Request) ([]string, error) {
	defer r.ledger.Timer(metrics.StageCandidates)()

	providers := r.source.Providers(ctx)
	if len(providers) == 0 {
		return nil, apperrors.NewProviderExhaustedError(0, nil)
	}

	payload, err := buildPayload(req)
	if err != nil {
		return nil, apperrors.NewProviderExhaustedError(0, err)
	}

	var lastErr error
	for _, p := range providers {
		names, err := r.tryProvider(ctx, p, payload)
		if err == nil {
			r.ledger.Inc(metrics.CountProviderSuccess)
			r.log.Info("candidates generated", map[string]interface{}{
				"provider": p.Name(),
				"model":    p.Model(),
				"count":    len(names),
			})
			return names, nil
		}

		r.ledger.Inc(metrics.CountProviderFailure)
		r.log.Warn("provider exhausted its attempts", map[string]interface{}{
			"provider":  p.Name(),
			"errorCode": string(apperrors.CodeOf(err)),
			"error":     err.Error(),
		})
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, apperrors.NewProviderExhaustedError(len(providers), lastErr)
}

func (r *Router) backoff(attempt int) time.Duration {
	d := r.cfg.BackoffBase << (attempt - 1)
	if r.cfg.BackoffCap > 0 && (d > r.cfg.BackoffCap || d <= 0) {
		d = r.cfg.BackoffCap
	}
	return d
}

func (r *Router) tryProvider(ctx context.Context, p llm.Provider, payload []byte) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(r.backoff(attempt)):
			case <-ctx.Done():
				return nil, apperrors.NewProviderCallFailedError(p.Name(), ctx.Err())
			}
		}

		names, err := r.callOnce(ctx, p, payload)
		if err == nil {
			return names, nil
		}
		r.log.Debug("provider attempt failed", map[string]interface{}{
			"provider": p.Name(),
			"attempt":  attempt + 1,
			"error":    err.Error(),
		})
		lastErr = err
	}
	return nil, lastErr
}

func (r *Router) callOnce(ctx context.Context, p llm.Provider, payload []byte) ([]string, error) {
	callCtx := ctx
	if r.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.CallTimeout)
		defer cancel()
	}

	raw, err := p.Generate(callCtx, SystemPrompt, payload)
	if err != nil {
		return nil, apperrors.NewProviderCallFailedError(p.Name(), err)
	}
	r.ledger.AddLLMCost(p.Name(), p.Model(), len(SystemPrompt)+len(payload), len(raw))

	names, err := ParseCandidates(raw)
	if err != nil {
		return nil, apperrors.NewMalformedProviderResponseError(p.Name(), err)
	}
	return names, nil
}

var errNoCandidates = errors.New("reply contained no usable names")

// ParseCandidates extracts the outermost JSON object from raw, validates
// it against the POI contract and returns the cleaned names.
func ParseCandidates(raw string) ([]string, error) {
	doc := extractObject(raw)
	if doc == "" {
		return nil, errors.New("reply contains no JSON object")
	}

	res, err := validation.PoiResponse.ValidateBytes([]byte(doc))
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, fmt.Errorf("reply violates schema: %s", res.Error())
	}

	var parsed struct {
		Pois []struct {
			Name string `json:"name"`
		} `json:"pois"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return nil, err
	}

	raws := make([]string, len(parsed.Pois))
	for i, p := range parsed.Pois {
		raws[i] = p.Name
	}
	names := Dedupe(raws)
	if len(names) == 0 {
		return nil, errNoCandidates
	}
	return names, nil
}

func extractObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

// Dedupe trims names, drops empty ones and removes case-insensitive
// duplicates, keeping the first spelling seen.
func Dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
