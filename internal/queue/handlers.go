package queue

import (
	"context"

	"github.com/hibiken/asynq"
)

// TaskHandler is implemented by the workers in package workers.
type TaskHandler interface {
	ProcessTask(ctx context.Context, t *asynq.Task) error
}

type HandlersRegistry struct {
	mux   *asynq.ServeMux
	types []string
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{
		mux: asynq.NewServeMux(),
	}
}

func (r *HandlersRegistry) Register(taskType string, handler TaskHandler) {
	r.mux.Handle(taskType, asynq.HandlerFunc(handler.ProcessTask))
	r.types = append(r.types, taskType)
}

// Types lists the registered task types in registration order.
func (r *HandlersRegistry) Types() []string {
	return r.types
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}
