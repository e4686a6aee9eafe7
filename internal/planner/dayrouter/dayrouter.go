// Package dayrouter attaches transit segments between consecutive stops of
// each day.
package dayrouter

import (
	"context"

	"golang.org/x/sync/errgroup"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/metrics"
	"travel-planner/internal/models"
	"travel-planner/internal/providers/maps"
)

const ModeTransit = "transit"

// maxParallelDays bounds concurrent directions lookups per plan.
const maxParallelDays = 4

// RouteLookup computes a single origin to destination segment.
type RouteLookup interface {
	Route(ctx context.Context, origin, dest models.GeoPoint, mode string) (maps.Route, error)
}

type Router struct {
	routes RouteLookup
	ledger *metrics.Ledger
	log    logger.Logger
}

func New(routes RouteLookup, ledger *metrics.Ledger, log logger.Logger) *Router {
	return &Router{
		routes: routes,
		ledger: ledger,
		log:    log.WithFields(map[string]interface{}{"component": "dayrouter"}),
	}
}

// RouteDay returns a copy of items where every stop after the first carries
// the transit segment from its predecessor. A failed lookup yields a zero
// segment.
func (r *Router) RouteDay(ctx context.Context, items []models.DayItem) []models.DayItem {
	out := make([]models.DayItem, len(items))
	copy(out, items)

	for i := range out {
		out[i].Transport = nil
		if i == 0 {
			continue
		}
		route, err := r.routes.Route(ctx, out[i-1].Place.Location, out[i].Place.Location, ModeTransit)
		if err != nil {
			r.ledger.Inc(metrics.CountRoutingFailures)
			r.log.Warn("transit lookup failed", map[string]interface{}{
				"from":  out[i-1].Place.Name,
				"to":    out[i].Place.Name,
				"error": apperrors.NewRoutingFailedError(err).Error(),
			})
			route = maps.Route{}
		}
		out[i].Transport = &models.Transport{
			Mode:            ModeTransit,
			DurationMinutes: route.DurationMinutes,
			DistanceKm:      route.DistanceKm,
		}
	}
	return out
}

// RouteDays routes every day. When parallel is set up to maxParallelDays
// days run concurrently; results land in the slot of their day so order is
// kept.
func (r *Router) RouteDays(ctx context.Context, days []models.DayPlan, parallel bool) []models.DayPlan {
	defer r.ledger.Timer(metrics.StageRoute)()

	out := make([]models.DayPlan, len(days))
	if !parallel {
		for i, d := range days {
			out[i] = models.DayPlan{Date: d.Date, Items: r.RouteDay(ctx, d.Items)}
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(maxParallelDays)
	for i, d := range days {
		i, d := i, d
		g.Go(func() error {
			out[i] = models.DayPlan{Date: d.Date, Items: r.RouteDay(ctx, d.Items)}
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		r.log.Warn("day routing interrupted, remaining segments are zero", map[string]interface{}{
			"days":  len(days),
			"error": err.Error(),
		})
	}
	return out
}
