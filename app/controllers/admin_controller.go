package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/velorahq/velora/internal/pkg/jobqueue"
	"github.com/velorahq/velora/internal/pkg/metrics/counter"
)

// AdminController exposes operator-facing views of the processing pipeline.
// All routes sit behind the admin API key middleware.
type AdminController struct {
	queue    *jobqueue.Queue
	counters *counter.Counter
}

func NewAdminController(queue *jobqueue.Queue, counters *counter.Counter) *AdminController {
	return &AdminController{queue: queue, counters: counters}
}

// HandleQueueStats receives GET /api/v1/admin/queue/stats.
func (ac *AdminController) HandleQueueStats(c *fiber.Ctx) error {
	ctx := c.Context()

	pending, err := ac.queue.GetQueueSize(ctx)
	if err != nil {
		log.Errorf("[Admin] Failed to read queue size: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats_unavailable"})
	}
	processing, err := ac.queue.GetProcessingSize(ctx)
	if err != nil {
		log.Errorf("[Admin] Failed to read processing size: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats_unavailable"})
	}
	jobStats, err := ac.queue.GetJobStats(ctx)
	if err != nil {
		log.Errorf("[Admin] Failed to read job stats: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats_unavailable"})
	}

	resp := fiber.Map{
		"pending":    pending,
		"processing": processing,
		"jobs":       jobStats,
	}

	if ac.counters != nil {
		events, err := ac.counters.Snapshot(ctx)
		if err != nil {
			log.Warnf("[Admin] Failed to read event counters: %v", err)
		} else {
			resp["events"] = events
		}
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
