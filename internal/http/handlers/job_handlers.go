package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-watermark/internal/config"
	"github.com/phambaophuc/image-watermark/internal/models"
	"github.com/phambaophuc/image-watermark/internal/services/queue"
	"github.com/phambaophuc/image-watermark/internal/services/storage"
	"github.com/phambaophuc/image-watermark/pkg/utils"
	"go.uber.org/zap"
)

const jobIDParamKey = "id"

type JobHandler struct {
	store      storage.JobStore
	dispatcher queue.Dispatcher
	publisher  *storage.Publisher
	logger     *zap.Logger
	config     *config.Config
}

func NewJobHandler(
	store storage.JobStore,
	dispatcher queue.Dispatcher,
	publisher *storage.Publisher,
	logger *zap.Logger,
	config *config.Config,
) *JobHandler {
	return &JobHandler{
		store:      store,
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
		config:     config,
	}
}

// === MAIN API ENDPOINTS ===

// CreateJob validates a batch request, stores it as pending and hands it to
// the dispatcher.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req models.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid job request: "+err.Error())
		return
	}

	if !req.HasAsset() {
		h.respondError(c, http.StatusBadRequest, "watermark_image_path or watermark_image_url is required for image watermarks")
		return
	}

	spec := req.Spec()
	if err := spec.Validate(); err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.checkDirectories(spec); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errPathNotAllowed) || errors.Is(err, errHostNotAllowed) {
			status = http.StatusForbidden
		}
		h.respondError(c, status, err.Error())
		return
	}

	if err := prepareOutputDir(spec.OutputDir); err != nil {
		h.logger.Error("Failed to create output directory",
			zap.String("output_dir", spec.OutputDir),
			zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to create output directory")
		return
	}

	now := time.Now()
	job := &models.ProcessingJob{
		ID:        utils.GenerateJobID(),
		Spec:      spec,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx := c.Request.Context()
	if err := h.store.Save(ctx, job); err != nil {
		h.logger.Error("Failed to store job", zap.String("job_id", job.ID), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to store job")
		return
	}

	if err := h.dispatcher.Dispatch(ctx, job); err != nil {
		h.logger.Error("Failed to dispatch job", zap.String("job_id", job.ID), zap.Error(err))
		job.Status = models.StatusFailed
		job.Error = err.Error()
		job.UpdatedAt = time.Now()
		if err := h.store.Save(ctx, job); err != nil {
			h.logger.Warn("Failed to store job", zap.String("job_id", job.ID), zap.Error(err))
		}
		h.respondError(c, http.StatusServiceUnavailable, "Job queue unavailable")
		return
	}

	h.logger.Info("Job accepted",
		zap.String("job_id", job.ID),
		zap.String("kind", string(spec.Kind)),
		zap.String("input_dir", spec.InputDir))

	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data: gin.H{
			"job_id": job.ID,
			"status": job.Status,
		},
	})
}

// GetJob returns the stored state of a job.
func (h *JobHandler) GetJob(c *gin.Context) {
	id := c.Param(jobIDParamKey)

	job, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			h.respondError(c, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error("Failed to load job", zap.String("job_id", id), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to load job")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    job,
	})
}

// Stats reports the queue backlog and the number of stored jobs.
func (h *JobHandler) Stats(c *gin.Context) {
	queueStats, err := h.dispatcher.Stats()
	if err != nil {
		h.logger.Error("Failed to get queue stats", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to get queue stats")
		return
	}

	storeStats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get job store stats", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to get job store stats")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data: gin.H{
			"queue":     queueStats,
			"job_store": storeStats,
		},
	})
}

// HealthCheck
func (h *JobHandler) HealthCheck(c *gin.Context) {
	services := storage.HealthCheck(c.Request.Context(), h.store, h.publisher)
	services["queue"] = h.dispatcher.HealthCheck()
	overall := h.calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}
