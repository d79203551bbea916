package tasks

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lacrlabs/lacr-backend/internal/database"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrTitleRequired   = errors.New("task title is required")
	ErrInvalidPriority = errors.New("priority must be low, medium or high")
	ErrInvalidBulk     = errors.New("action and task_ids array are required")
)

type TaskService struct {
	db *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db}
}

func (s *TaskService) Create(deviceID string, req *CreateTaskRequest) (*Task, error) {
	if req.Title == "" {
		return nil, ErrTitleRequired
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !validPriority(priority) {
		return nil, ErrInvalidPriority
	}

	task := Task{
		DeviceID:    deviceID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		DueDate:     req.DueDate,
	}
	if err := s.db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &task, nil
}

func (s *TaskService) List(deviceID string) ([]Task, error) {
	return s.listWhere(deviceID, nil)
}

func (s *TaskService) ListByPriority(deviceID, priority string) ([]Task, error) {
	if !validPriority(priority) {
		return nil, ErrInvalidPriority
	}
	return s.listWhere(deviceID, func(q *gorm.DB) *gorm.DB {
		return q.Where("priority = ?", priority)
	})
}

func (s *TaskService) ListCompleted(deviceID string) ([]Task, error) {
	return s.listWhere(deviceID, func(q *gorm.DB) *gorm.DB {
		return q.Where("completed = ?", true)
	})
}

func (s *TaskService) ListPending(deviceID string) ([]Task, error) {
	return s.listWhere(deviceID, func(q *gorm.DB) *gorm.DB {
		return q.Where("completed = ?", false)
	})
}

func (s *TaskService) ListOverdue(deviceID string, now time.Time) ([]Task, error) {
	return s.listWhere(deviceID, func(q *gorm.DB) *gorm.DB {
		return q.Where("completed = ? AND due_date IS NOT NULL AND due_date < ?", false, now)
	})
}

func (s *TaskService) Update(deviceID string, taskID uuid.UUID, req *UpdateTaskRequest) (*Task, error) {
	task, err := s.get(deviceID, taskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, ErrTitleRequired
		}
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	if req.Priority != nil {
		if !validPriority(*req.Priority) {
			return nil, ErrInvalidPriority
		}
		task.Priority = *req.Priority
	}
	if req.ClearDue {
		task.DueDate = nil
	} else if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	if err := s.db.Save(task).Error; err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

func (s *TaskService) Delete(deviceID string, taskID uuid.UUID) (*Task, error) {
	task, err := s.get(deviceID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete(task).Error; err != nil {
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}
	return task, nil
}

func (s *TaskService) Toggle(deviceID string, taskID uuid.UUID) (*Task, error) {
	task, err := s.get(deviceID, taskID)
	if err != nil {
		return nil, err
	}
	task.Completed = !task.Completed
	if err := s.db.Model(task).Update("completed", task.Completed).Error; err != nil {
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}
	return task, nil
}

// Bulk applies complete, uncomplete or delete to a set of tasks. Tasks that
// do not belong to the device are reported back rather than failing the batch.
func (s *TaskService) Bulk(deviceID string, req *BulkTaskRequest) ([]Task, []uuid.UUID, error) {
	if req.Action == "" || len(req.TaskIDs) == 0 {
		return nil, nil, ErrInvalidBulk
	}

	var updated []Task
	var notFound []uuid.UUID
	for _, taskID := range req.TaskIDs {
		task, err := s.get(deviceID, taskID)
		if err != nil {
			notFound = append(notFound, taskID)
			continue
		}

		switch req.Action {
		case "complete":
			task.Completed = true
		case "uncomplete":
			task.Completed = false
		case "delete":
			if err := s.db.Delete(task).Error; err != nil {
				return nil, nil, fmt.Errorf("failed to delete task: %w", err)
			}
			continue
		default:
			continue
		}

		if err := s.db.Model(task).Update("completed", task.Completed).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to update task: %w", err)
		}
		updated = append(updated, *task)
	}
	return updated, notFound, nil
}

func (s *TaskService) listWhere(deviceID string, filter func(*gorm.DB) *gorm.DB) ([]Task, error) {
	query := s.db.Scopes(database.ForDevice(deviceID))
	if filter != nil {
		query = filter(query)
	}

	var tasks []Task
	if err := query.Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) get(deviceID string, taskID uuid.UUID) (*Task, error) {
	var task Task
	err := s.db.Scopes(database.ForDevice(deviceID)).
		Where("id = ?", taskID).First(&task).Error
	if err != nil {
		return nil, ErrTaskNotFound
	}
	return &task, nil
}

func validPriority(priority string) bool {
	return priority == PriorityLow || priority == PriorityMedium || priority == PriorityHigh
}
