package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"reaplex/internal/queue"
	"reaplex/pkg/models"
)

var validate = validator.New()

// EnqueueJobHandler handles POST /v1/jobs: validate, build a payload the
// Classifier/Router will later interpret, and enqueue it. The Queue never
// inspects payload fields itself beyond fingerprinting it.
func EnqueueJobHandler(q *queue.Queue) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := c.Get("request_id").(string)

		var req models.JobEnqueueRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "invalid_request", Message: "invalid request body",
				RequestID: requestID, Timestamp: time.Now(),
			})
		}
		if err := validate.Struct(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "validation_failed", Message: err.Error(),
				RequestID: requestID, Timestamp: time.Now(),
			})
		}

		payload := map[string]interface{}{"url": req.URL}
		if req.RenderJS {
			payload["render_js"] = true
		}
		if req.ForceJS {
			payload["force_js"] = true
		}
		if req.Timeout > 0 {
			payload["timeout"] = req.Timeout
		}
		if len(req.Headers) > 0 {
			headers := make(map[string]interface{}, len(req.Headers))
			for k, v := range req.Headers {
				headers[k] = v
			}
			payload["headers"] = headers
		}
		if req.Engine != "" {
			payload["engine"] = req.Engine
		}

		enqueued, err := q.Enqueue(c.Request().Context(), payload)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error: "enqueue_failed", Message: err.Error(),
				RequestID: requestID, Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusAccepted, models.JobEnqueueResponse{
			Enqueued: enqueued, URL: req.URL, RequestID: requestID,
		})
	}
}

// JobStatsHandler handles GET /v1/jobs/stats: the Queue's cardinality
// snapshot across SEEN/PENDING/PROCESSING/DONE/FAILED.
func JobStatsHandler(q *queue.Queue) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := c.Get("request_id").(string)

		stats, err := q.Stats(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error: "stats_unavailable", Message: err.Error(),
				RequestID: requestID, Timestamp: time.Now(),
			})
		}
		return c.JSON(http.StatusOK, stats)
	}
}
