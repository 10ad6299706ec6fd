package tasks

import "github.com/hibiken/asynq"

// TaskEnqueuer is the subset of asynq.Client the handlers need.
// Satisfied by *asynq.Client; mocked in tests.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
