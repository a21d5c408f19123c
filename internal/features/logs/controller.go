package logs

import (
	"go-chat/internal/common/apperr"

	"github.com/gofiber/fiber/v2"
)

type LogController struct {
	service LogService
}

func NewLogController(service LogService) *LogController {
	return &LogController{service: service}
}

// QueryLogs godoc
// @Summary      Query action logs
// @Description  Returns recent log entries, newest first. Requires the view_logs permission.
// @Tags         Logs
// @Produce      json
// @Param        level  query  string  false  "Level filter (debug, info, warn, error)"
// @Param        actor  query  string  false  "Actor user ID filter"
// @Param        limit  query  int     false  "Max entries (default 200, cap 1000)"
// @Success      200  {array}  common_models.Log
// @Router       /api/logs [get]
func (lc *LogController) QueryLogs(ctx *fiber.Ctx) error {
	query := LogQuery{
		Level: ctx.Query("level"),
		Actor: ctx.Query("actor"),
		Limit: int64(ctx.QueryInt("limit")),
	}

	entries, err := lc.service.Query(ctx.UserContext(), query)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(entries)
}

// SweepLogs godoc
// @Summary      Run the retention sweep now
// @Description  Deletes log entries older than the configured retention window without waiting for the schedule.
// @Tags         Logs
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/logs/sweep [post]
func (lc *LogController) SweepLogs(ctx *fiber.Ctx) error {
	deleted, err := lc.service.Sweep(ctx.UserContext())
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{"deleted": deleted})
}
