package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/program"
)

func (repo *programRepository) queryTasks() []program.Task {
	tasks := make([]program.Task, 0, len(repo.db.task.table))
	for _, task := range repo.db.task.table {
		tasks = append(tasks, *task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

func (repo *programRepository) CreateTask(ctx context.Context, task program.Task, exec ...core.DBExecutor) (program.Task, error) {
	repo.db.task.Lock()
	defer repo.db.task.Unlock()

	repo.db.task.pkCount++
	task.ID = repo.db.task.pkCount
	repo.db.task.table[task.ID] = &task
	return task, nil
}

func (repo *programRepository) GetTaskByID(ctx context.Context, id int, exec ...core.DBExecutor) (program.Task, error) {
	repo.db.task.RLock()
	defer repo.db.task.RUnlock()

	if task, ok := repo.db.task.table[id]; ok {
		return *task, nil
	}
	return program.Task{}, program.ErrTaskNotFound
}

func (repo *programRepository) QueryTasksByProgramID(ctx context.Context, programID int, exec ...core.DBExecutor) ([]program.Task, error) {
	repo.db.task.RLock()
	defer repo.db.task.RUnlock()

	tasks := make([]program.Task, 0)
	for _, task := range repo.queryTasks() {
		if task.ProgramID == programID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (repo *programRepository) QueryTasksByOrganizerID(ctx context.Context, organizerID int, exec ...core.DBExecutor) ([]program.Task, error) {
	repo.db.task.RLock()
	defer repo.db.task.RUnlock()

	tasks := make([]program.Task, 0)
	for _, task := range repo.queryTasks() {
		if task.OrganizerID == organizerID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (repo *programRepository) QueryTasksByParticipantID(ctx context.Context, participantID int, exec ...core.DBExecutor) ([]program.Task, error) {
	progIDs := make(map[int]bool)
	repo.db.enrollment.RLock()
	for _, enr := range repo.db.enrollment.table {
		if enr.ParticipantID == participantID {
			progIDs[enr.ProgramID] = true
		}
	}
	repo.db.enrollment.RUnlock()

	repo.db.task.RLock()
	defer repo.db.task.RUnlock()

	tasks := make([]program.Task, 0)
	for _, task := range repo.queryTasks() {
		if progIDs[task.ProgramID] {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// DeleteTask removes a task along with its submissions, feedback and grades.
func (repo *programRepository) DeleteTask(ctx context.Context, id int, exec ...core.DBExecutor) error {
	repo.db.task.Lock()
	delete(repo.db.task.table, id)
	repo.db.task.Unlock()

	repo.db.submission.Lock()
	for subID, sub := range repo.db.submission.table {
		if sub.TaskID == id {
			delete(repo.db.submission.table, subID)
		}
	}
	repo.db.submission.Unlock()

	repo.db.feedback.Lock()
	for fbID, fb := range repo.db.feedback.table {
		if fb.TaskID == id {
			delete(repo.db.feedback.table, fbID)
		}
	}
	repo.db.feedback.Unlock()

	repo.db.grade.Lock()
	for gradeID, g := range repo.db.grade.table {
		if g.TaskID == id {
			delete(repo.db.grade.table, gradeID)
		}
	}
	repo.db.grade.Unlock()

	return nil
}
