package handlers

import (
	"errors"
	"net/http"

	"barangayhealth/internal/jobs/background"

	"github.com/labstack/echo/v4"
)

// JobController is the part of the scheduler the admin API drives.
type JobController interface {
	RunNow(name string) error
	GetJobStatus() []background.JobStatus
}

type JobHandlers struct {
	scheduler JobController
}

func NewJobHandlers(scheduler JobController) *JobHandlers {
	return &JobHandlers{scheduler: scheduler}
}

// ListJobs returns every registered job with its next run and last sweep summary.
func (h *JobHandlers) ListJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"jobs": h.scheduler.GetJobStatus(),
	})
}

// RunJob triggers a job immediately. The run happens in the background.
func (h *JobHandlers) RunJob(c echo.Context) error {
	name := c.Param("name")

	if err := h.scheduler.RunNow(name); err != nil {
		if errors.Is(err, background.ErrJobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Job not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to trigger job")
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Job triggered",
		"job":     name,
	})
}
