// Package verifier resolves candidate names to canonical place records and
// drops low-rated ones.
package verifier

import (
	"context"
	"strings"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/metrics"
	"travel-planner/internal/models"
)

// PlaceLookup is the search and detail surface of the place database.
type PlaceLookup interface {
	SearchText(ctx context.Context, query string) ([]models.VerifiedPlace, error)
	Details(ctx context.Context, placeID string) (*models.VerifiedPlace, error)
}

type Verifier struct {
	places    PlaceLookup
	minRating float64
	ledger    *metrics.Ledger
	log       logger.Logger
}

func New(places PlaceLookup, minRating float64, ledger *metrics.Ledger, log logger.Logger) *Verifier {
	return &Verifier{
		places:    places,
		minRating: minRating,
		ledger:    ledger,
		log:       log.WithFields(map[string]interface{}{"component": "verifier"}),
	}
}

// Verify resolves each candidate in order. Candidates with no hit, a failed
// lookup, or a rating below the threshold are skipped. When nothing survives
// the empty slice comes back with a NO_VERIFIED_PLACES error.
func (v *Verifier) Verify(ctx context.Context, candidates []string, city string) ([]models.VerifiedPlace, error) {
	defer v.ledger.Timer(metrics.StageVerify)()

	verified := make([]models.VerifiedPlace, 0, len(candidates))
	for _, name := range candidates {
		if ctx.Err() != nil {
			break
		}
		place, err := v.verifyOne(ctx, name, city)
		if err != nil {
			v.ledger.Inc(metrics.CountVerifySkipped)
			v.log.Warn("candidate verification failed", map[string]interface{}{
				"candidate": name,
				"error":     err.Error(),
			})
			continue
		}
		if place == nil {
			v.ledger.Inc(metrics.CountVerifySkipped)
			continue
		}
		verified = append(verified, *place)
	}

	v.log.Info("verification finished", map[string]interface{}{
		"candidates": len(candidates),
		"verified":   len(verified),
		"minRating":  v.minRating,
	})
	if len(verified) == 0 {
		return verified, apperrors.NewNoVerifiedPlacesError(city, len(candidates))
	}
	return verified, nil
}

func (v *Verifier) verifyOne(ctx context.Context, name, city string) (*models.VerifiedPlace, error) {
	hits, err := v.places.SearchText(ctx, strings.TrimSpace(name+" "+city))
	if err != nil {
		return nil, apperrors.NewCandidateVerificationFailedError(name, err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	detail, err := v.places.Details(ctx, hits[0].PlaceID)
	if err != nil {
		return nil, apperrors.NewCandidateVerificationFailedError(name, err)
	}
	if detail == nil {
		return nil, nil
	}
	if !detail.MeetsRating(v.minRating) {
		v.log.Debug("candidate below rating threshold", map[string]interface{}{
			"candidate": name,
			"rating":    *detail.Rating,
		})
		return nil, nil
	}
	return detail, nil
}
