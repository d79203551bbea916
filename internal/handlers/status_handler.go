package handlers

import (
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
)

const serviceName = "LAC-R Backend API"
const serviceVersion = "1.0.0"

type StatusHandler struct {
	startedAt time.Time
}

func NewStatusHandler() *StatusHandler {
	return &StatusHandler{startedAt: time.Now()}
}

func (h *StatusHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":   true,
		"status":    "online",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   serviceVersion,
		"service":   serviceName,
	})
}

func (h *StatusHandler) Detailed(c *fiber.Ctx) error {
	uptime := time.Since(h.startedAt)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return c.JSON(fiber.Map{
		"success":   true,
		"status":    "online",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime": fiber.Map{
			"seconds": int(uptime.Seconds()),
			"minutes": int(uptime.Minutes()),
			"hours":   int(uptime.Hours()),
		},
		"memory": fiber.Map{
			"alloc_mb":       mem.Alloc / 1024 / 1024,
			"sys_mb":         mem.Sys / 1024 / 1024,
			"heap_in_use_mb": mem.HeapInuse / 1024 / 1024,
			"goroutines":     runtime.NumGoroutine(),
		},
		"version": serviceVersion,
		"service": serviceName,
	})
}
