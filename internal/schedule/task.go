package schedule

import "context"

// Task is one unit of periodic work. Run is called once per tick and must
// return when ctx is done.
type Task interface {
	Run(ctx context.Context) error
	Name() string
}

// TaskFunc adapts a plain function to Task.
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

func (f TaskFunc) Run(ctx context.Context) error {
	return f.Fn(ctx)
}

func (f TaskFunc) Name() string {
	return f.TaskName
}
