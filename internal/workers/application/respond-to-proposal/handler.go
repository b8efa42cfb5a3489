// internal/workers/application/respond-to-proposal/handler.go
package respondtoproposal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/common/metrics"
	"offer-ledger/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "respond-to-proposal"
)

// Responder applies submitter actions to an application.
type Responder interface {
	Respond(ctx context.Context, id string, action models.Action, actor string) (*models.Application, error)
}

type Handler struct {
	config    *Config
	responder Responder
	logger    logger.Logger
	errorHdl  *apperrors.ErrorHandler
}

func NewHandler(config *Config, responder Responder, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		responder: responder,
		logger:    l,
		errorHdl:  apperrors.NewErrorHandler(l),
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
	action := models.Action(strings.ToLower(strings.TrimSpace(input.Action)))

	app, err := h.responder.Respond(ctx, input.ApplicationID, action, input.Actor)
	if err != nil {
		return nil, err
	}

	actions := models.AvailableActions(app)
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return &Output{
		ApplicationID:     app.ID,
		ApplicationStatus: string(app.Status),
		Proposal:          app.Proposal,
		AvailableActions:  names,
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
