package dummydb

import (
	"sync"

	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		user         *userTable
		program      *programTable
		enrollment   *enrollmentTable
		task         *taskTable
		submission   *submissionTable
		feedback     *feedbackTable
		grade        *gradeTable
		notification *notificationTable
	}

	userTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*user.User
	}

	programTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*program.Program
	}

	enrollmentTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*program.Enrollment
	}

	taskTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*program.Task
	}

	submissionTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*submission.Submission
	}

	feedbackTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*submission.Feedback
	}

	gradeTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*grade.Grade
	}

	notificationTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*notification.Notification
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:         &userTable{table: make(map[int]*user.User)},
		program:      &programTable{table: make(map[int]*program.Program)},
		enrollment:   &enrollmentTable{table: make(map[int]*program.Enrollment)},
		task:         &taskTable{table: make(map[int]*program.Task)},
		submission:   &submissionTable{table: make(map[int]*submission.Submission)},
		feedback:     &feedbackTable{table: make(map[int]*submission.Feedback)},
		grade:        &gradeTable{table: make(map[int]*grade.Grade)},
		notification: &notificationTable{table: make(map[int]*notification.Notification)},
	}
	return db, nil
}

// Reset wipes all tables; sequences restart at 1.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.pkCount = 0
	db.user.table = make(map[int]*user.User)
	db.user.Unlock()

	db.program.Lock()
	db.program.pkCount = 0
	db.program.table = make(map[int]*program.Program)
	db.program.Unlock()

	db.enrollment.Lock()
	db.enrollment.pkCount = 0
	db.enrollment.table = make(map[int]*program.Enrollment)
	db.enrollment.Unlock()

	db.task.Lock()
	db.task.pkCount = 0
	db.task.table = make(map[int]*program.Task)
	db.task.Unlock()

	db.submission.Lock()
	db.submission.pkCount = 0
	db.submission.table = make(map[int]*submission.Submission)
	db.submission.Unlock()

	db.feedback.Lock()
	db.feedback.pkCount = 0
	db.feedback.table = make(map[int]*submission.Feedback)
	db.feedback.Unlock()

	db.grade.Lock()
	db.grade.pkCount = 0
	db.grade.table = make(map[int]*grade.Grade)
	db.grade.Unlock()

	db.notification.Lock()
	db.notification.pkCount = 0
	db.notification.table = make(map[int]*notification.Notification)
	db.notification.Unlock()
}
