package program

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Task categories
const (
	CategoryHomework = "homework"
	CategoryTest     = "test"
	CategoryProject  = "project"
	CategoryQuiz     = "quiz"
	CategoryExam     = "exam"
)

type Program struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Subject     string `json:"subject"`
	OrganizerID int    `json:"organizer_id"`
}

type Enrollment struct {
	ID            int `json:"id"`
	ParticipantID int `json:"participant_id"`
	ProgramID     int `json:"program_id"`
}

type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Category    string     `json:"category"`
	ProgramID   int        `json:"program_id"`
	OrganizerID int        `json:"organizer_id"`
}

// NewProgram contains information needed to create a new Program.
type NewProgram struct {
	Name    string `json:"name" validate:"required"`
	Subject string `json:"subject" validate:"required"`
}

func (np *NewProgram) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Subject = core.CleanString(np.Subject)
	return validate.Struct(np)
}

// NewTask contains information needed to create a new Task.
type NewTask struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"omitempty,oneof=homework test project quiz exam"`
	DueDate     string `json:"due_date"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	nt.Category = core.CleanString(nt.Category, true /* lower */)
	if nt.Category == "" {
		nt.Category = CategoryHomework
	}
	return validate.Struct(nt)
}

// ParseDueDate parses the due date as a YYYY-MM-DD calendar date.
// An empty or malformed value yields no due date, not an error.
func (nt *NewTask) ParseDueDate() *time.Time {
	if nt.DueDate == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", nt.DueDate)
	if err != nil {
		return nil
	}
	return &t
}

// NewEnrollment contains information needed to enroll a participant in a Program.
type NewEnrollment struct {
	ParticipantID int `json:"participant_id" validate:"required"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error { return validate.Struct(ne) }

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
