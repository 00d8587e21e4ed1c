package models

// Principal is the verified identity of whoever invokes an operation.
// It is only ever compared for equality.
type Principal string

type Task struct {
	ID        uint64    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Completed bool      `json:"completed" db:"completed"`
	Owner     Principal `json:"owner" db:"owner"`
}

// TaskUpdate holds the optional fields of an update. A nil field is left as is.
type TaskUpdate struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}
