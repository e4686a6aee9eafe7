// internal/workers/planning/hotel-booking-intent/handler.go
package hotelbookingintent

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
	"travel-planner/internal/providers/hotels"
)

const TaskType = "hotel-booking-intent"

// Booker resolves a booking link. It always returns a usable link.
type Booker interface {
	BookingIntent(ctx context.Context, city, checkin string, nights int) hotels.BookingLink
}

type Handler struct {
	config *Config
	booker Booker
	errors *apperrors.ErrorHandler
	obs    *observability.Observability
	logger logger.Logger
}

func NewHandler(config *Config, booker Booker, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		booker: booker,
		errors: apperrors.NewErrorHandler(log),
		obs:    obs,
		logger: log,
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
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
		h.obs.RecordJobProcessed(ctx, "failed")
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	output := h.Execute(ctx, input)

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

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, "completed")
	h.obs.RecordJobDuration(ctx, time.Since(start), "completed")
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	result, err := validation.BookingIntent.ValidateBytes([]byte(variables))
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
	if input.Nights < 1 {
		input.Nights = 1
	}
	input.City = strings.TrimSpace(input.City)
	return &input, nil
}

// Execute never fails; an unavailable provider yields the fallback link.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	link := h.booker.BookingIntent(ctx, input.City, input.Checkin, input.Nights)
	h.logger.Info("booking link resolved", map[string]interface{}{
		"city":   input.City,
		"source": link.Source,
	})
	return &Output{BookingURL: link.URL, BookingSource: link.Source}
}
