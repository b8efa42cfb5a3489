// internal/workers/application/delete-application/handler.go
package deleteapplication

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/common/metrics"
	"offer-ledger/internal/lifecycle"
	"offer-ledger/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "delete-application"
)

// Deleter removes applications softly or permanently.
type Deleter interface {
	SoftDelete(ctx context.Context, id, actor string) (*models.Application, error)
	Purge(ctx context.Context, id string, force bool, actor string) (*lifecycle.PurgeResult, error)
}

type Handler struct {
	config   *Config
	deleter  Deleter
	logger   logger.Logger
	errorHdl *apperrors.ErrorHandler
}

func NewHandler(config *Config, deleter Deleter, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		deleter:  deleter,
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
	if input.ApplicationID == "" {
		return nil, apperrors.NewApplicationValidationFailedError("applicationId is required")
	}

	switch input.Mode {
	case "", ModeSoft:
		app, err := h.deleter.SoftDelete(ctx, input.ApplicationID, input.Actor)
		if err != nil {
			return nil, err
		}
		return &Output{
			ApplicationID:     app.ID,
			ApplicationStatus: string(app.Status),
			LedgerRow:         app.Row(),
		}, nil
	case ModePermanent:
		res, err := h.deleter.Purge(ctx, input.ApplicationID, input.Force, input.Actor)
		if err != nil {
			return nil, err
		}
		return &Output{
			ApplicationID:     res.ApplicationID,
			ApplicationStatus: string(models.StatusPurged),
			LedgerRow:         res.Row,
			RowsRenumbered:    res.Renumbered,
		}, nil
	default:
		return nil, apperrors.NewApplicationValidationFailedError(fmt.Sprintf("unknown mode %q", input.Mode))
	}
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
		"jobKey":            job.Key,
		"applicationId":     output.ApplicationID,
		"applicationStatus": output.ApplicationStatus,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errorHdl.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
