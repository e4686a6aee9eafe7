// internal/workers/planning/plan-trip/handler.go
package plantrip

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/metrics"
	"travel-planner/internal/common/observability"
	"travel-planner/internal/common/validation"
	"travel-planner/internal/models"
)

const TaskType = "plan-trip"

// Planner produces an itinerary. Only invalid requests fail.
type Planner interface {
	PlanTrip(ctx context.Context, req models.TripRequest) (*models.Itinerary, error)
}

type Handler struct {
	config  *Config
	planner Planner
	errors  *apperrors.ErrorHandler
	obs     *observability.Observability
	logger  logger.Logger
}

func NewHandler(config *Config, planner Planner, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		planner: planner,
		errors:  apperrors.NewErrorHandler(log),
		obs:     obs,
		logger:  log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.GetKey(),
		"workflowKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job.GetVariables())
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, "completed")
	h.obs.RecordJobDuration(ctx, time.Since(start), "completed")
}

// parseInput validates the raw variables against the trip schema before
// decoding them.
func (h *Handler) parseInput(variables string) (*Input, error) {
	result, err := validation.TripRequest.ValidateBytes([]byte(variables))
	if err != nil {
		return nil, apperrors.NewInvalidTripRequestError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidTripRequestError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidTripRequestError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// Execute plans the trip described by input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidTripRequestError("input cannot be nil")
	}

	it, err := h.planner.PlanTrip(ctx, input.TripRequest())
	if err != nil {
		return nil, err
	}
	return &Output{
		TripID:     it.Trip.ID,
		Itinerary:  it,
		GrandTotal: it.GrandTotal,
		Currency:   it.Totals.Currency,
		Degraded:   len(it.Uncertainties) > 0,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	h.logger.Info("trip planned", map[string]interface{}{
		"jobKey":     job.GetKey(),
		"tripId":     output.TripID,
		"grandTotal": output.GrandTotal,
		"degraded":   output.Degraded,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	code := string(apperrors.CodeOf(err))
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, time.Since(start), "failed")
	h.errors.HandleJobError(ctx, client, job, err)
}
