// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

// Package timer provides a set of cancellable scheduled tasks.
//
// Tasks are not fired by goroutines. The owner polls Due at a fixed
// resolution from its own loop, so every task runs on the owner's goroutine
// and firing is best-effort within one polling interval.
package timer

import (
	"sort"
	"time"
)

// Handle identifies a scheduled task. The zero Handle is never issued.
type Handle uint64

// Kind classifies what a task does when it fires.
type Kind string

// Task is a scheduled unit of work.
type Task struct {
	Handle Handle
	Kind   Kind
	Key    string // what the task refers to, e.g. a POI id or player name
	At     time.Time
}

// Set holds pending tasks. It is not safe for concurrent use.
type Set struct {
	next  Handle
	tasks map[Handle]Task
}

// NewSet creates an empty task set.
func NewSet() *Set {
	return &Set{tasks: make(map[Handle]Task)}
}

// Schedule registers a task to fire at the given time.
func (s *Set) Schedule(kind Kind, key string, at time.Time) Handle {
	s.next++
	h := s.next
	s.tasks[h] = Task{Handle: h, Kind: kind, Key: key, At: at}
	return h
}

// Cancel removes a pending task. It reports whether the task was pending.
// Cancelling the zero Handle or an already fired task is a no-op.
func (s *Set) Cancel(h Handle) bool {
	if h == 0 {
		return false
	}
	if _, ok := s.tasks[h]; !ok {
		return false
	}
	delete(s.tasks, h)
	return true
}

// Pending reports whether h is still scheduled.
func (s *Set) Pending(h Handle) bool {
	_, ok := s.tasks[h]
	return ok
}

// Get returns the pending task for h.
func (s *Set) Get(h Handle) (Task, bool) {
	t, ok := s.tasks[h]
	return t, ok
}

// Due removes and returns every task scheduled at or before now,
// ordered by fire time and then by scheduling order.
func (s *Set) Due(now time.Time) []Task {
	var due []Task
	for h, t := range s.tasks {
		if !t.At.After(now) {
			due = append(due, t)
			delete(s.tasks, h)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].At.Equal(due[j].At) {
			return due[i].Handle < due[j].Handle
		}
		return due[i].At.Before(due[j].At)
	})
	return due
}

// Len returns the number of pending tasks.
func (s *Set) Len() int {
	return len(s.tasks)
}

// Clear cancels every pending task.
func (s *Set) Clear() {
	clear(s.tasks)
}
