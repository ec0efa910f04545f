package todo

import "sync"

// Store is the authoritative in-memory task list. All access is serialized
// through a single mutex. The Store performs no I/O; callers persist a
// snapshot after each mutation.
//
// The zero value is an empty, ready-to-use Store.
type Store struct {
	mu    sync.Mutex
	tasks []Task
}

// NewStore returns a Store holding a copy of tasks.
func NewStore(tasks ...Task) *Store {
	return &Store{tasks: Clone(tasks)}
}

// All returns a snapshot copy of the current list.
func (s *Store) All() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Clone(s.tasks)
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// ReplaceAll overwrites the whole list. Ids are not checked for uniqueness.
func (s *Store) ReplaceAll(tasks []Task) {
	next := Clone(tasks)

	s.mu.Lock()
	s.tasks = next
	s.mu.Unlock()
}

// LoadFrom installs tasks read from persisted data. It has the same effect
// as ReplaceAll.
func (s *Store) LoadFrom(tasks []Task) {
	s.ReplaceAll(tasks)
}

// Create appends a new pending task and returns a copy of it.
func (s *Store) Create(text string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := NextID(s.tasks)
	if err != nil {
		return Task{}, err
	}
	t := Task{ID: id, Text: text, Completed: false}
	s.tasks = append(s.tasks, t)
	return t, nil
}

// Toggle flips Completed on the first task with the given id and returns the
// updated copy.
func (s *Store) Toggle(id uint32) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := IndexOf(s.tasks, id)
	if i < 0 {
		return Task{}, &NotFoundError{ID: id}
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	return s.tasks[i], nil
}

// Delete removes the first task with the given id, keeping the order of the
// rest.
func (s *Store) Delete(id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := IndexOf(s.tasks, id)
	if i < 0 {
		return &NotFoundError{ID: id}
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return nil
}
