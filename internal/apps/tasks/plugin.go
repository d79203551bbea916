package tasks

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lacrlabs/lacr-backend/internal/catalog"
	"github.com/lacrlabs/lacr-backend/internal/config"
	"gorm.io/gorm"
)

type TasksPlugin struct{}

func New() *TasksPlugin {
	return &TasksPlugin{}
}

func (p *TasksPlugin) ID() string { return "tasks" }

func (p *TasksPlugin) Models() []interface{} {
	return []interface{}{
		&Task{},
	}
}

func (p *TasksPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config, _ *catalog.Registry) {
	taskService := NewTaskService(db)
	taskHandler := NewTaskHandler(taskService)

	// filter routes before :task_id so fiber does not treat them as IDs
	router.Get("/tasks/:device_id/priority/:priority", taskHandler.ListByPriority)
	router.Get("/tasks/:device_id/completed", taskHandler.ListCompleted)
	router.Get("/tasks/:device_id/pending", taskHandler.ListPending)
	router.Get("/tasks/:device_id/overdue", taskHandler.ListOverdue)
	router.Post("/tasks/:device_id/bulk", taskHandler.BulkUpdate)
	router.Get("/tasks/:device_id", taskHandler.ListTasks)
	router.Post("/tasks/:device_id", taskHandler.CreateTask)
	router.Put("/tasks/:device_id/:task_id", taskHandler.UpdateTask)
	router.Delete("/tasks/:device_id/:task_id", taskHandler.DeleteTask)
	router.Patch("/tasks/:device_id/:task_id/toggle", taskHandler.ToggleTask)
}
