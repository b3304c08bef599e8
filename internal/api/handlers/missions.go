package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"reaplex/internal/missions"
	"reaplex/pkg/models"
)

// SubmitMissionHandler handles POST /v1/missions: hand a natural-language
// goal to the background mission manager and return its process id
// immediately; the Orchestrator's plan/discover/archive/execute flow runs
// outside the request/response cycle.
func SubmitMissionHandler(mgr *missions.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := c.Get("request_id").(string)

		var req models.MissionRequest
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

		processID := mgr.Submit(req.Goal)
		return c.JSON(http.StatusAccepted, models.MissionAcceptedResponse{
			ProcessID: processID, Status: string(missions.StatusAccepted),
		})
	}
}

// GetMissionHandler handles GET /v1/missions/:id: the current status and,
// once complete, the {successful, failed, skipped} outcome summary spec.md
// §7 calls for.
func GetMissionHandler(mgr *missions.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := c.Get("request_id").(string)
		processID := c.Param("id")

		record, ok := mgr.Get(processID)
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: "mission_not_found", Message: "no mission with that process id",
				RequestID: requestID, Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, models.MissionStatusResponse{
			ProcessID:   record.ProcessID,
			Status:      string(record.Status),
			Summary:     record.Summary,
			Error:       record.Error,
			CreatedAt:   record.CreatedAt,
			CompletedAt: record.CompletedAt,
		})
	}
}
