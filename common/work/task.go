package work

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type task[T any] struct {
	id      string
	run     func(ctx context.Context) (T, error)
	onError func(error)
	timeout time.Duration
}

type TaskOption[T any] func(*task[T])

// WithID replaces the generated task ID. Map uses it to carry the input index.
func WithID[T any](id string) TaskOption[T] {
	return func(t *task[T]) { t.id = id }
}

// WithErrorHandler is called with the error of a failed or timed out run
func WithErrorHandler[T any](handler func(error)) TaskOption[T] {
	return func(t *task[T]) { t.onError = handler }
}

// WithTimeout overrides the pool's task timeout
func WithTimeout[T any](timeout time.Duration) TaskOption[T] {
	return func(t *task[T]) { t.timeout = timeout }
}

// NewTask wraps fn as an Executor with a random ID
func NewTask[T any](fn func(ctx context.Context) (T, error), options ...TaskOption[T]) Executor[T] {
	t := &task[T]{id: uuid.NewString(), run: fn}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// SimpleTask wraps a function that only reports success or failure
func SimpleTask(fn func(ctx context.Context) error, options ...TaskOption[struct{}]) Executor[struct{}] {
	return NewTask(func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, options...)
}

func (t *task[T]) ExecutorID() string { return t.id }

func (t *task[T]) Execute(ctx context.Context) (T, error) { return t.run(ctx) }

func (t *task[T]) OnError(err error) {
	if t.onError != nil {
		t.onError(err)
	}
}

func (t *task[T]) Timeout() time.Duration { return t.timeout }
