package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/foodgram-backend/internal/http/response"
	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/services"
)

const jobListLimit = 50

type JobHandler struct {
	log  *logger.Logger
	jobs services.JobService
}

func NewJobHandler(log *logger.Logger, jobs services.JobService) *JobHandler {
	return &JobHandler{log: log.With("handler", "JobHandler"), jobs: jobs}
}

type createJobRequest struct {
	JobType string         `json:"job_type"`
	Payload map[string]any `json:"payload"`
}

type jobResponse struct {
	Job JobOut `json:"job"`
}

func jobID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, pkgerrors.ErrNotFound
	}
	return id, nil
}

// POST /api/jobs/
func (h *JobHandler) Create(c *gin.Context) {
	var req createJobRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	dbc := requestDBC(c)
	job, err := h.jobs.Enqueue(dbc, ctxutil.UserID(dbc.Ctx), req.JobType, req.Payload)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondAccepted(c, jobResponse{Job: Job(job)})
}

// GET /api/jobs/
func (h *JobHandler) List(c *gin.Context) {
	limit := jobListLimit
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 && n < jobListLimit {
		limit = n
	}
	jobs, err := h.jobs.ListForRequestUser(requestDBC(c), limit)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	out := make([]JobOut, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, Job(j))
	}
	response.RespondOK(c, gin.H{"jobs": out})
}

// GET /api/jobs/:id/
func (h *JobHandler) Get(c *gin.Context) {
	id, err := jobID(c)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	job, err := h.jobs.GetByIDForRequestUser(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, jobResponse{Job: Job(job)})
}

// GET /api/jobs/:id/events/
func (h *JobHandler) Events(c *gin.Context) {
	id, err := jobID(c)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	events, err := h.jobs.EventsForRequestUser(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	out := make([]JobEventOut, 0, len(events))
	for _, e := range events {
		out = append(out, JobEvent(e))
	}
	response.RespondOK(c, gin.H{"events": out})
}
