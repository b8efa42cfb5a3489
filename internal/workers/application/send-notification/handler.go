// internal/workers/application/send-notification/handler.go
package sendnotification

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
	TaskType = "send-notification"
)

// Notifier is satisfied by *notify.Dispatcher. Delivery failures come back
// as failed notifications, not errors.
type Notifier interface {
	Notify(ctx context.Context, address, text string) models.Notification
	NotifyAdmins(ctx context.Context, text string) []models.Notification
}

type Handler struct {
	config   *Config
	notifier Notifier
	logger   logger.Logger
	errorHdl *apperrors.ErrorHandler
}

func NewHandler(config *Config, notifier Notifier, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		notifier: notifier,
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
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, apperrors.NewApplicationValidationFailedError("text is required")
	}
	if !input.ToAdmins && strings.TrimSpace(input.Address) == "" {
		return nil, apperrors.NewApplicationValidationFailedError("address is required unless toAdmins is set")
	}

	var sent []models.Notification
	if input.ToAdmins {
		sent = h.notifier.NotifyAdmins(ctx, input.Text)
	} else {
		sent = []models.Notification{h.notifier.Notify(ctx, input.Address, input.Text)}
	}

	out := &Output{Recipients: len(sent), SentAt: time.Now().UTC().Format(time.RFC3339)}
	for _, n := range sent {
		if n.Status == models.NotificationFailed {
			out.Failed++
		}
	}
	switch {
	case out.Failed == 0:
		out.Status = StatusSent
	case out.Failed == out.Recipients:
		out.Status = StatusFailed
	default:
		out.Status = StatusPartial
	}

	h.logger.Info("notification dispatched", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"kind":          input.Kind,
		"status":        out.Status,
		"recipients":    out.Recipients,
	})
	return out, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errorHdl.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
