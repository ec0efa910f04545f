package todo

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotFound is returned when an operation references an id that is not
// in the list.
var ErrNotFound = errors.New("todo not found")

// ErrIDSpaceExhausted is returned by Create when the largest id in the list
// is already the maximum representable id.
var ErrIDSpaceExhausted = errors.New("todo id space exhausted")

// NotFoundError identifies the missing id. It matches ErrNotFound with
// errors.Is.
type NotFoundError struct {
	ID uint32
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("todo %d not found", e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Task is a single to-do item.
type Task struct {
	ID        uint32 `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// NextID returns one greater than the largest id in tasks, or 1 when tasks
// is empty.
func NextID(tasks []Task) (uint32, error) {
	var max uint32
	for _, t := range tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	if max == math.MaxUint32 {
		return 0, ErrIDSpaceExhausted
	}
	return max + 1, nil
}

// Clone returns a copy of tasks. The result is never nil, so an empty list
// encodes as [] rather than null.
func Clone(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

// IndexOf returns the index of the first task with the given id, or -1.
func IndexOf(tasks []Task, id uint32) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Counts returns the number of completed and pending tasks.
func Counts(tasks []Task) (done, pending int) {
	for _, t := range tasks {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return done, pending
}
