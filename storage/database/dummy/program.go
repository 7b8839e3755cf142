package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/user"
)

type programRepository struct {
	db *DB
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(db *DB) *programRepository {
	return &programRepository{db: db}
}

func (repo *programRepository) queryPrograms() []program.Program {
	progs := make([]program.Program, 0, len(repo.db.program.table))
	for _, prog := range repo.db.program.table {
		progs = append(progs, *prog)
	}
	sort.Slice(progs, func(i, j int) bool { return progs[i].ID < progs[j].ID })
	return progs
}

func (repo *programRepository) CreateProgram(ctx context.Context, prog program.Program, exec ...core.DBExecutor) (program.Program, error) {
	repo.db.program.Lock()
	defer repo.db.program.Unlock()

	repo.db.program.pkCount++
	prog.ID = repo.db.program.pkCount
	repo.db.program.table[prog.ID] = &prog
	return prog, nil
}

func (repo *programRepository) GetProgramByID(ctx context.Context, id int, exec ...core.DBExecutor) (program.Program, error) {
	repo.db.program.RLock()
	defer repo.db.program.RUnlock()

	if prog, ok := repo.db.program.table[id]; ok {
		return *prog, nil
	}
	return program.Program{}, program.ErrNotFound
}

func (repo *programRepository) QueryProgramsByOrganizerID(ctx context.Context, organizerID int, filter *program.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]program.Program, error) {
	repo.db.program.RLock()
	progs := make([]program.Program, 0)
	for _, prog := range repo.queryPrograms() {
		if prog.OrganizerID == organizerID {
			progs = append(progs, prog)
		}
	}
	repo.db.program.RUnlock()

	progs = filterPrograms(progs, filter)
	sortPrograms(progs, ordering)
	return progs, nil
}

func (repo *programRepository) QueryProgramsByParticipantID(ctx context.Context, participantID int, filter *program.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]program.Program, error) {
	progIDs := make(map[int]bool)
	repo.db.enrollment.RLock()
	for _, enr := range repo.db.enrollment.table {
		if enr.ParticipantID == participantID {
			progIDs[enr.ProgramID] = true
		}
	}
	repo.db.enrollment.RUnlock()

	repo.db.program.RLock()
	progs := make([]program.Program, 0, len(progIDs))
	for _, prog := range repo.queryPrograms() {
		if progIDs[prog.ID] {
			progs = append(progs, prog)
		}
	}
	repo.db.program.RUnlock()

	progs = filterPrograms(progs, filter)
	sortPrograms(progs, ordering)
	return progs, nil
}

// filterPrograms keeps programs with Name or Subject matching the search keyword
func filterPrograms(progs []program.Program, filter *program.QueryFilter) []program.Program {
	if filter == nil || filter.Search == "" {
		return progs
	}
	search := strings.ToLower(filter.Search)
	filtered := make([]program.Program, 0, len(progs))
	for _, prog := range progs {
		if strings.Contains(strings.ToLower(prog.Name), search) ||
			strings.Contains(strings.ToLower(prog.Subject), search) {
			filtered = append(filtered, prog)
		}
	}
	return filtered
}

func sortPrograms(progs []program.Program, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		return // already in ID order
	}
	for k := len(ordering) - 1; k >= 0; k-- {
		ord := ordering[k]
		sort.SliceStable(progs, func(i, j int) bool {
			a, b := progs[i], progs[j]
			if !ord.Ascending {
				a, b = b, a
			}
			switch ord.Field {
			case "name":
				return a.Name < b.Name
			case "subject":
				return a.Subject < b.Subject
			default:
				return a.ID < b.ID
			}
		})
	}
}

func (repo *programRepository) CreateEnrollment(ctx context.Context, enr program.Enrollment, exec ...core.DBExecutor) (program.Enrollment, error) {
	repo.db.enrollment.Lock()
	defer repo.db.enrollment.Unlock()

	for _, e := range repo.db.enrollment.table {
		if e.ProgramID == enr.ProgramID && e.ParticipantID == enr.ParticipantID {
			return program.Enrollment{}, program.ErrAlreadyEnrolled
		}
	}

	repo.db.enrollment.pkCount++
	enr.ID = repo.db.enrollment.pkCount
	repo.db.enrollment.table[enr.ID] = &enr
	return enr, nil
}

func (repo *programRepository) EnrollmentExists(ctx context.Context, programID, participantID int, exec ...core.DBExecutor) (bool, error) {
	repo.db.enrollment.RLock()
	defer repo.db.enrollment.RUnlock()

	for _, enr := range repo.db.enrollment.table {
		if enr.ProgramID == programID && enr.ParticipantID == participantID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *programRepository) QueryParticipantsByProgramID(ctx context.Context, programID int, exec ...core.DBExecutor) ([]user.User, error) {
	participantIDs := make(map[int]bool)
	repo.db.enrollment.RLock()
	for _, enr := range repo.db.enrollment.table {
		if enr.ProgramID == programID {
			participantIDs[enr.ParticipantID] = true
		}
	}
	repo.db.enrollment.RUnlock()

	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	participants := make([]user.User, 0, len(participantIDs))
	for _, usr := range repo.db.user.table {
		if participantIDs[usr.ID] {
			participants = append(participants, *usr)
		}
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i].ID < participants[j].ID })
	return participants, nil
}
