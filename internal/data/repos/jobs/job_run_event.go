package jobs

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type JobRunEventRepo interface {
	Create(dbc dbctx.Context, events []*types.JobRunEvent) ([]*types.JobRunEvent, error)
	ListByJob(dbc dbctx.Context, jobID uuid.UUID) ([]*types.JobRunEvent, error)
	FullDeleteByOwnerIDs(dbc dbctx.Context, ownerUserIDs []uint) error
}

type jobRunEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRunEventRepo(db *gorm.DB, baseLog *logger.Logger) JobRunEventRepo {
	return &jobRunEventRepo{
		db:  db,
		log: baseLog.With("repo", "JobRunEventRepo"),
	}
}

func (r *jobRunEventRepo) Create(dbc dbctx.Context, events []*types.JobRunEvent) ([]*types.JobRunEvent, error) {
	if len(events) == 0 {
		return []*types.JobRunEvent{}, nil
	}
	if err := dbc.Conn(r.db).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// ListByJob returns the timeline of one job, oldest first.
func (r *jobRunEventRepo) ListByJob(dbc dbctx.Context, jobID uuid.UUID) ([]*types.JobRunEvent, error) {
	var out []*types.JobRunEvent
	if jobID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobRunEventRepo) FullDeleteByOwnerIDs(dbc dbctx.Context, ownerUserIDs []uint) error {
	if len(ownerUserIDs) == 0 {
		return nil
	}
	return dbc.Conn(r.db).
		Where("owner_user_id IN ?", ownerUserIDs).
		Delete(&types.JobRunEvent{}).Error
}
