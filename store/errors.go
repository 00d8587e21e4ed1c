package store

// ErrorKind tells the two domain failures apart.
type ErrorKind string

const (
	TaskNotFound ErrorKind = "task_not_found"
	NotOwner     ErrorKind = "not_owner"
)

// TaskError is a recoverable failure returned straight to the caller.
type TaskError struct {
	Kind    ErrorKind
	Message string
}

func (e *TaskError) Error() string {
	return e.Message
}

// Is matches any TaskError of the same kind, so wrapped or rebuilt errors
// still satisfy errors.Is(err, ErrTaskNotFound).
func (e *TaskError) Is(target error) bool {
	t, ok := target.(*TaskError)
	return ok && t.Kind == e.Kind
}

var (
	ErrTaskNotFound = &TaskError{Kind: TaskNotFound, Message: "Task not found"}
	ErrNotOwner     = &TaskError{Kind: NotOwner, Message: "You are not the owner of this task"}
)
