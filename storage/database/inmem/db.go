// Package inmemdb provides map-backed repositories for tests and local
// development. A single lock guards all tables so cascading deletes are atomic.
package inmemdb

import (
	"sync"

	"github.com/chendurkumaran/eduresource/core/assignment"
	"github.com/chendurkumaran/eduresource/core/course"
	"github.com/chendurkumaran/eduresource/core/enrollment"
	"github.com/chendurkumaran/eduresource/core/submission"
	"github.com/chendurkumaran/eduresource/core/user"
)

type DB struct {
	mutex       sync.RWMutex
	users       map[string]*user.User
	courses     map[string]*course.Course
	assignments map[string]*assignment.Assignment
	submissions map[string]*submission.Submission
	enrollments map[string]*enrollment.Enrollment
}

func NewDB() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		courses:     make(map[string]*course.Course),
		assignments: make(map[string]*assignment.Assignment),
		submissions: make(map[string]*submission.Submission),
		enrollments: make(map[string]*enrollment.Enrollment),
	}
}

// Reset drops every table; tests call it between cases.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.users = make(map[string]*user.User)
	db.courses = make(map[string]*course.Course)
	db.assignments = make(map[string]*assignment.Assignment)
	db.submissions = make(map[string]*submission.Submission)
	db.enrollments = make(map[string]*enrollment.Enrollment)
}
