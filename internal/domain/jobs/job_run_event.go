package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobEventKind string

const (
	JobEventCreated   JobEventKind = "created"
	JobEventProgress  JobEventKind = "progress"
	JobEventFailed    JobEventKind = "failed"
	JobEventSucceeded JobEventKind = "succeeded"
)

// JobRunEvent is an append-only ledger of job status and progress messages.
type JobRunEvent struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	JobID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"job_id"`
	OwnerUserID uint           `gorm:"not null;index" json:"owner_user_id"`
	JobType     string         `gorm:"column:job_type;not null" json:"job_type"`
	Kind        string         `gorm:"column:kind;not null" json:"kind"`
	Status      string         `gorm:"column:status;not null" json:"status"`
	Stage       string         `gorm:"column:stage;not null" json:"stage"`
	Progress    int            `gorm:"column:progress;not null" json:"progress"`
	Message     string         `gorm:"column:message;type:text" json:"message,omitempty"`
	Data        datatypes.JSON `gorm:"column:data" json:"data,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (JobRunEvent) TableName() string { return "job_run_event" }

func (e *JobRunEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
