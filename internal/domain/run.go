package domain

import (
	"time"

	"github.com/google/uuid"
)

type RunState string

const (
	RunStateTriggered  RunState = "TRIGGERED"
	RunStateSkipped    RunState = "SKIPPED"
	RunStateFetching   RunState = "FETCHING"
	RunStateMirroring  RunState = "MIRRORING"
	RunStateFlattening RunState = "FLATTENING"
	RunStateWriting    RunState = "WRITING"
	RunStateDone       RunState = "DONE"
	RunStateFailed     RunState = "FAILED"
)

// Terminal reports whether no further transition can follow s.
func (s RunState) Terminal() bool {
	return s == RunStateSkipped || s == RunStateDone || s == RunStateFailed
}

type ExportState string

const (
	ExportBuilt   ExportState = "built"
	ExportSkipped ExportState = "skipped"
	ExportFailed  ExportState = "failed"
)

// ExportStatus is the platform's answer to an export request.
type ExportStatus struct {
	State   ExportState
	Message string
}

const (
	SkipReasonUpToDate     = "up_to_date"
	SkipReasonExportFailed = "export_failed"
	SkipReasonLocked       = "locked"
)

type RunReport struct {
	RunID      uuid.UUID  `json:"run_id" yaml:"run_id"`
	State      RunState   `json:"state" yaml:"state"`
	FailedIn   RunState   `json:"failed_in,omitempty" yaml:"failed_in,omitempty"`
	SkipReason string     `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
	Languages  int        `json:"languages" yaml:"languages"`
	Documents  int        `json:"documents" yaml:"documents"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

func NewRunReport() *RunReport {
	return &RunReport{
		RunID:     uuid.New(),
		State:     RunStateTriggered,
		StartedAt: time.Now(),
	}
}

func (r *RunReport) Finish(state RunState) {
	now := time.Now()
	r.State = state
	r.FinishedAt = &now
}
