// Package orchestrator runs the itinerary pipeline: context, candidates,
// verification, distribution, routing and budget, in that order.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/metrics"
	"travel-planner/internal/common/observability"
	"travel-planner/internal/models"
	"travel-planner/internal/planner/budget"
	"travel-planner/internal/planner/candidates"
	"travel-planner/internal/planner/dayrouter"
	"travel-planner/internal/planner/distributor"
	"travel-planner/internal/planner/verifier"
	"travel-planner/internal/providers/contextsource"
)

// FallbackCandidates are planned when every generative provider fails.
var FallbackCandidates = []string{"City Museum", "Central Park", "Old Town", "Main Cathedral", "Local Market"}

const (
	noteFallback        = "Generative providers unavailable; planned with generic fallback candidates."
	uncertaintyFallback = "Candidates are generic placeholders, not tailored to preferences."
	noteNoVerified      = "Verification returned no POIs; check API keys, quotas, or raise MIN_RATING."
	uncertaintyNoPlaces = "No verified POIs, itinerary is skeletal."
	uncertaintyOverflow = "Some days exceed %d stops to keep every verified place."
)

// Options are the planner settings taken from config.
type Options struct {
	MinRating       float64
	DefaultCurrency string
	DefaultSlot     string
	ParallelRouting bool
}

// Deps are the pipeline stages. Context may be nil.
type Deps struct {
	Context    contextsource.Source
	Candidates *candidates.Router
	Verifier   *verifier.Verifier
	Routes     *dayrouter.Router
	Budget     *budget.Estimator
	Obs        *observability.Observability
	Ledger     *metrics.Ledger
}

type Orchestrator struct {
	deps Deps
	opts Options
	now  func() time.Time
	log  logger.Logger
}

func New(deps Deps, opts Options, log logger.Logger) *Orchestrator {
	if deps.Context == nil {
		deps.Context = contextsource.Noop{}
	}
	if opts.DefaultSlot == "" {
		opts.DefaultSlot = "09:00"
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "USD"
	}
	return &Orchestrator{
		deps: deps,
		opts: opts,
		now:  time.Now,
		log:  log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// WithClock overrides the clock used to default the start date.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// PlanTrip builds an itinerary for req. Only an invalid request is returned
// as an error; every other failure degrades the result and is explained in
// its notes and uncertainties.
func (o *Orchestrator) PlanTrip(ctx context.Context, req models.TripRequest) (*models.Itinerary, error) {
	ctx, span := o.deps.Obs.StartSpan(ctx, "planner.plan_trip", attribute.String("city", req.City))
	defer span.End()

	trip, err := req.Normalize(o.now(), o.opts.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	it, err := models.NewItinerary(trip)
	if err != nil {
		return nil, apperrors.NewInvalidTripRequestError(err.Error())
	}
	log := o.log.WithFields(map[string]interface{}{"tripId": it.Trip.ID, "city": trip.City})

	groundingCtx := o.retrieveContext(ctx, trip, log)

	names, fellBack := o.generate(ctx, trip, groundingCtx, it, log)
	degraded := fellBack

	places := o.verify(ctx, names, trip.City, log)
	if len(places) == 0 {
		degraded = true
		it.AddNote(noteNoVerified)
		it.AddUncertainty(uncertaintyNoPlaces)
	} else {
		o.schedule(ctx, it, places)
	}

	o.estimate(ctx, it)

	if len(places) > 0 {
		it.AddNote(fmt.Sprintf("POIs verified via Google Maps (min rating %v). Transit estimates are approximate.", o.opts.MinRating))
	}

	o.deps.Ledger.Inc(metrics.CountPlans)
	o.deps.Obs.RecordPlan(ctx, trip.City, degraded)
	log.Info("itinerary planned", map[string]interface{}{
		"days":       len(it.Days),
		"stops":      it.ItemCount(),
		"grandTotal": it.GrandTotal,
		"degraded":   degraded,
	})
	return it, nil
}

// stage opens a span and returns the func that closes it and records the
// stage duration.
func (o *Orchestrator) stage(ctx context.Context, name string) (context.Context, func()) {
	start := time.Now()
	ctx, span := o.deps.Obs.StartSpan(ctx, "planner."+name)
	return ctx, func() {
		span.End()
		o.deps.Obs.RecordStage(ctx, name, time.Since(start))
	}
}

func (o *Orchestrator) retrieveContext(ctx context.Context, trip models.TripRequest, log logger.Logger) string {
	ctx, done := o.stage(ctx, "context")
	defer done()

	text, err := o.deps.Context.Retrieve(ctx, trip.City, trip.Preferences)
	if err != nil {
		log.Warn("context retrieval failed, continuing without context", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	return text
}

func (o *Orchestrator) generate(ctx context.Context, trip models.TripRequest, groundingCtx string, it *models.Itinerary, log logger.Logger) ([]string, bool) {
	ctx, done := o.stage(ctx, metrics.StageCandidates)
	defer done()

	names, err := o.deps.Candidates.Generate(ctx, candidates.Request{
		City:        trip.City,
		Preferences: trip.Preferences,
		Days:        trip.Days,
		Budget:      trip.Budget,
		Context:     groundingCtx,
	})
	if err == nil {
		return names, false
	}

	log.Warn("candidate generation failed, using fallback candidates", map[string]interface{}{
		"errorCode": string(apperrors.CodeOf(err)),
		"error":     err.Error(),
	})
	it.AddNote(noteFallback)
	it.AddUncertainty(uncertaintyFallback)
	return append([]string(nil), FallbackCandidates...), true
}

func (o *Orchestrator) verify(ctx context.Context, names []string, city string, log logger.Logger) []models.VerifiedPlace {
	ctx, done := o.stage(ctx, metrics.StageVerify)
	defer done()

	places, err := o.deps.Verifier.Verify(ctx, names, city)
	if err != nil && !apperrors.Is(err, apperrors.ErrCodeNoVerifiedPlaces) {
		log.Warn("verification failed", map[string]interface{}{"error": err.Error()})
	}
	return places
}

// schedule distributes places over the trip days and routes each day.
func (o *Orchestrator) schedule(ctx context.Context, it *models.Itinerary, places []models.VerifiedPlace) {
	ctx, done := o.stage(ctx, metrics.StageRoute)
	defer done()

	buckets := distributor.Distribute(places, len(it.Days))
	if distributor.Overflows(len(places), len(it.Days)) {
		it.AddUncertainty(fmt.Sprintf(uncertaintyOverflow, distributor.MaxPerDay))
	}

	for i, bucket := range buckets {
		items := make([]models.DayItem, 0, len(bucket))
		for _, p := range bucket {
			items = append(items, models.DayItem{
				Time:   o.opts.DefaultSlot,
				Place:  p,
				Source: models.SourceMapService,
			})
		}
		it.Days[i].Items = items
	}

	it.Days = o.deps.Routes.RouteDays(ctx, it.Days, o.opts.ParallelRouting)
}

func (o *Orchestrator) estimate(ctx context.Context, it *models.Itinerary) {
	ctx, done := o.stage(ctx, metrics.StageBudget)
	defer done()

	o.deps.Budget.Estimate(ctx, it)
}
