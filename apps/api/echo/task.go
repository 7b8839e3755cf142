package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

var errTaskNotFoundInCtx = errors.New("task object not found in echo.Context")

type taskApi struct {
	deps *Deps
}

func registerTaskAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := taskApi{deps: deps}

	tg := g.Group("/tasks", jwt)
	tg.GET("", api.query)

	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.POST("/submissions", api.submit, participantMiddleware())

	// organizer-owned endpoints
	og := dg.Group("", organizerMiddleware(), ctxOwnedTaskMiddleware(deps))
	og.DELETE("", api.destroy)
	og.GET("/submissions", api.querySubmissions)
	og.POST("/feedback", api.addFeedback)
	og.GET("/grades", api.queryGrades)
	og.POST("/grades", api.recordGrades)
}

// Handlers

// query lists the tasks reachable by the caller: authored ones for an
// organizer, those of enrolled programs for a participant.
func (api *taskApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.deps)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var tasks []program.Task
	if usr.IsOrganizer() {
		tasks, err = api.deps.ProgSvc.QueryTasksByOrganizerID(ctx.Request().Context(), usr.ID)
	} else {
		tasks, err = api.deps.ProgSvc.QueryTasksByParticipantID(ctx.Request().Context(), usr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []program.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

// retrieve returns the task detail. The owning organizer sees all
// submissions; an enrolled participant sees their own submission, feedback
// and grade. Anyone else gets a 404.
func (api *taskApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.deps)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	task, err := api.getTask(ctx)
	if err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	if usr.IsOrganizer() {
		if task.OrganizerID != usr.ID {
			return errHttpNotFound
		}
		subs, err := api.deps.SubSvc.QueryByTaskID(rctx, task.ID)
		if err != nil {
			return errors.Wrap(err, "querying task submissions")
		}
		if subs == nil {
			subs = []submission.Submission{}
		}
		return ctx.JSON(http.StatusOK, TaskDetailResponse{Task: task, Submissions: subs})
	}

	enrolled, err := api.deps.ProgSvc.IsEnrolled(rctx, task.ProgramID, usr.ID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return errHttpNotFound
	}

	resp := TaskDetailResponse{Task: task}
	if sub, err := api.deps.SubSvc.GetByTaskAndParticipant(rctx, task.ID, usr.ID); err == nil {
		resp.Submission = &sub
	} else if errors.Cause(err) != submission.ErrNotFound {
		return errors.Wrap(err, "finding submission")
	}
	if fb, err := api.deps.SubSvc.GetFeedbackByTaskAndParticipant(rctx, task.ID, usr.ID); err == nil {
		resp.Feedback = &fb
	} else if errors.Cause(err) != submission.ErrFeedbackNotFound {
		return errors.Wrap(err, "finding feedback")
	}
	grades, err := api.deps.GradeSvc.QueryByParticipantID(rctx, usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	for _, g := range grades {
		if g.TaskID == task.ID {
			g := g
			resp.Grade = &g
			break
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}

// submit records the participant's work for the task: an optional text and an
// optional file from the multipart form. Participants not enrolled in the
// task's program get a 404.
func (api *taskApi) submit(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.deps)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	task, err := api.getTask(ctx)
	if err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	enrolled, err := api.deps.ProgSvc.IsEnrolled(rctx, task.ProgramID, usr.ID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return errHttpNotFound
	}

	data := submission.NewSubmission{
		SubmissionText: core.CleanString(ctx.FormValue("submission_text")),
	}
	if fh, err := ctx.FormFile("submission_file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		defer f.Close()
		data.FileName = fh.Filename
		data.File = f
	}

	sub, err := api.deps.SubSvc.Submit(rctx, task, usr, data)
	if err != nil {
		if _, ok := errors.Cause(err).(*core.ValidationError); ok {
			return err
		}
		return errors.Wrap(err, "submitting task answer")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	task, ok := ctx.Get("task").(program.Task)
	if !ok {
		return errors.Wrap(errTaskNotFoundInCtx, "retrieving task from context")
	}

	if err := api.deps.ProgSvc.DeleteTask(ctx.Request().Context(), task); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *taskApi) querySubmissions(ctx echo.Context) error {
	task, ok := ctx.Get("task").(program.Task)
	if !ok {
		return errors.Wrap(errTaskNotFoundInCtx, "retrieving task from context")
	}

	subs, err := api.deps.SubSvc.QueryByTaskID(ctx.Request().Context(), task.ID)
	if err != nil {
		return errors.Wrap(err, "querying task submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *taskApi) addFeedback(ctx echo.Context) error {
	task, ok := ctx.Get("task").(program.Task)
	if !ok {
		return errors.Wrap(errTaskNotFoundInCtx, "retrieving task from context")
	}

	var data submission.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.deps)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	fb, err := api.deps.SubSvc.AddFeedback(ctx.Request().Context(), task, usr.ID, data)
	if err != nil {
		if errors.Cause(err) == submission.ErrNoSubmissionFound {
			return core.NewValidationError(nil, core.FieldError{Field: "participant_id", Error: err.Error()})
		}
		return errors.Wrap(err, "adding feedback")
	}
	return ctx.JSON(http.StatusCreated, fb)
}

// queryGrades returns the grading grid: the program's participants alongside
// the task's current grades.
func (api *taskApi) queryGrades(ctx echo.Context) error {
	task, ok := ctx.Get("task").(program.Task)
	if !ok {
		return errors.Wrap(errTaskNotFoundInCtx, "retrieving task from context")
	}

	rctx := ctx.Request().Context()
	participants, err := api.deps.ProgSvc.QueryParticipants(rctx, task.ProgramID)
	if err != nil {
		return errors.Wrap(err, "querying program participants")
	}
	if participants == nil {
		participants = []user.User{}
	}
	grades, err := api.deps.GradeSvc.QueryByTaskID(rctx, task.ID)
	if err != nil {
		return errors.Wrap(err, "querying task grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, GradingGridResponse{Participants: participants, Grades: grades})
}

func (api *taskApi) recordGrades(ctx echo.Context) error {
	task, ok := ctx.Get("task").(program.Task)
	if !ok {
		return errors.Wrap(errTaskNotFoundInCtx, "retrieving task from context")
	}

	var data grade.NewGrades
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrades")
	}

	grades, err := api.deps.GradeSvc.Record(ctx.Request().Context(), task, data)
	if err != nil {
		return errors.Wrap(err, "recording grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *taskApi) getTask(ctx echo.Context) (program.Task, error) {
	id, err := intParam(ctx, "id")
	if err != nil {
		return program.Task{}, err
	}
	task, err := api.deps.ProgSvc.GetTaskByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == program.ErrTaskNotFound {
			return program.Task{}, errHttpNotFound
		}
		return program.Task{}, errors.Wrap(err, "finding task by ID")
	}
	return task, nil
}

// ctxOwnedTaskMiddleware resolves the :id path param to a task authored by
// the context user and sets it as "task". Dangling ids and tasks authored by
// someone else both get a 404.
func ctxOwnedTaskMiddleware(deps *Deps) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, deps)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			id, err := intParam(ctx, "id")
			if err != nil {
				return err
			}
			task, err := deps.ProgSvc.GetTaskByID(ctx.Request().Context(), id)
			if err != nil {
				if errors.Cause(err) == program.ErrTaskNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding task by ID")
			}
			if task.OrganizerID != ctxUsr.ID {
				return errHttpNotFound
			}
			ctx.Set("task", task)
			return next(ctx)
		}
	}
}

type (
	TaskDetailResponse struct {
		Task        program.Task            `json:"task"`
		Submissions []submission.Submission `json:"submissions,omitempty"`
		Submission  *submission.Submission  `json:"submission,omitempty"`
		Feedback    *submission.Feedback    `json:"feedback,omitempty"`
		Grade       *grade.Grade            `json:"grade,omitempty"`
	}

	GradingGridResponse struct {
		Participants []user.User   `json:"participants"`
		Grades       []grade.Grade `json:"grades"`
	}
)
