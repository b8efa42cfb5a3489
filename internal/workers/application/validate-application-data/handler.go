// internal/workers/application/validate-application-data/handler.go
package validateapplicationdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/common/metrics"
	"offer-ledger/internal/common/validation"
	"offer-ledger/internal/notify"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-application-data"
)

type Handler struct {
	config   *Config
	logger   logger.Logger
	errorHdl *apperrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		logger:   l,
		errorHdl: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		err = apperrors.NewApplicationValidationFailedError(fmt.Sprintf("parse input: %v", err))
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
		h.errorHdl.HandleJobError(ctx, client, job, err)
		return
	}

	output := h.execute(&input)

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(input *Input) *Output {
	offer, res := validation.DecodeOffer(input.Offer)

	h.logger.Info("validation completed", map[string]interface{}{
		"isValid":    res.Valid,
		"errorCount": len(res.Errors),
	})

	if !res.Valid {
		return &Output{ValidationErrors: res.Errors}
	}
	return &Output{
		IsValid:          true,
		Offer:            &offer,
		Preview:          notify.Preview(offer),
		ValidationErrors: []validation.ValidationError{},
	}
}

func (h *Handler) Execute(_ context.Context, input *Input) *Output {
	return h.execute(input)
}
