package messages

import (
	"github.com/google/uuid"
	"go-browserpilot/pkg/models"
)

type StartRun struct {
	RunID   uuid.UUID
	Request models.TaskRequest
}

type StepObserved struct {
	Event models.StepEvent
}

type RunFinished struct {
	Summary models.ResultSummary
}

type GetStatus struct{}

type GetArtifact struct{}

type CancelRun struct{}
