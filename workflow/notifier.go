package workflow

import (
	"context"

	"github.com/mmdatafocus/marketplace_backend/config"
	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/sirupsen/logrus"
)

// Notifier is told about todo rows after the transaction that created them committed.
type Notifier interface {
	TodoCreated(ctx context.Context, todo *models.TodoList) error
}

// PubSubNotifier publishes created todos to TODO_EVENTS_TOPIC.
type PubSubNotifier struct{}

func (PubSubNotifier) TodoCreated(ctx context.Context, todo *models.TodoList) error {
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	_, err := config.PublishTodoEvent(ctx, config.TodoEventMessage{
		TodoListId:     todo.ID,
		OrganizationId: todo.OrganizationId,
		Event:          string(todo.Event),
		Meta:           todo.Meta,
		CreatedAt:      todo.CreatedAt,
		CorrelationId:  correlationId,
	})
	return err
}

type NopNotifier struct{}

func (NopNotifier) TodoCreated(context.Context, *models.TodoList) error { return nil }

// notifyCreated never fails the caller; the rows are already committed.
func notifyCreated(ctx context.Context, notifier Notifier, logger *logrus.Logger, todos []*models.TodoList) {
	if notifier == nil {
		return
	}
	for _, todo := range todos {
		if err := notifier.TodoCreated(ctx, todo); err != nil {
			logger.WithFields(logrus.Fields{
				"todo_list_id":    todo.ID,
				"event":           todo.Event,
				"organization_id": todo.OrganizationId,
			}).WithError(err).Warn("todo notification failed")
		}
	}
}
