// internal/workers/application/file-application/handler.go
package fileapplication

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/common/metrics"
	"offer-ledger/internal/common/validation"
	"offer-ledger/internal/lifecycle"
	"offer-ledger/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "file-application"
)

// Filer creates application records.
type Filer interface {
	File(ctx context.Context, req lifecycle.FileRequest) (*models.Application, error)
}

type Handler struct {
	config   *Config
	filer    Filer
	logger   logger.Logger
	errorHdl *apperrors.ErrorHandler
}

func NewHandler(config *Config, filer Filer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		filer:    filer,
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
		h.fail(ctx, client, job, apperrors.NewApplicationValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.OwnerID) == "" {
		return nil, apperrors.NewApplicationValidationFailedError("ownerId is required")
	}
	offer, res := validation.DecodeOffer(input.Offer)
	if !res.Valid {
		return nil, apperrors.NewApplicationValidationFailedError(strings.Join(res.GetErrorMessages(), "; "))
	}

	app, err := h.filer.File(ctx, lifecycle.FileRequest{
		OwnerID:       input.OwnerID,
		NotifyAddress: input.NotifyAddress,
		Offer:         offer,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		ApplicationID:     app.ID,
		ApplicationStatus: string(app.Status),
		LedgerRow:         app.Row(),
		CreatedAt:         app.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
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
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":        job.Key,
		"applicationId": output.ApplicationID,
		"ledgerRow":     output.LedgerRow,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errorHdl.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
