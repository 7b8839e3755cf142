package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/user"
)

var errProgNotFoundInCtx = errors.New("program object not found in echo.Context")

type programApi struct {
	deps *Deps
}

func registerProgramAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := programApi{deps: deps}

	pg := g.Group("/programs", jwt)
	pg.GET("", api.query)
	pg.POST("", api.create, organizerMiddleware())

	dg := pg.Group("/:id")
	dg.GET("", api.retrieve)

	// organizer-owned endpoints
	og := dg.Group("", organizerMiddleware(), ctxOwnedProgramMiddleware(deps))
	og.GET("/participants", api.queryParticipants)
	og.POST("/enrollments", api.enroll)
	og.POST("/tasks", api.createTask)
}

// Handlers

// query lists the programs reachable by the caller: owned ones for an
// organizer, enrolled ones for a participant.
func (api *programApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.deps)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(program.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []program.Program{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	var progs []program.Program
	if usr.IsOrganizer() {
		progs, err = api.deps.ProgSvc.QueryByOrganizerID(ctx.Request().Context(), usr.ID, filter, ordering.Orderings)
	} else {
		progs, err = api.deps.ProgSvc.QueryByParticipantID(ctx.Request().Context(), usr.ID, filter, ordering.Orderings)
	}
	if err != nil {
		return errors.Wrap(err, "querying programs")
	}
	if progs == nil {
		progs = []program.Program{}
	}
	return ctx.JSON(http.StatusOK, progs)
}

func (api *programApi) create(ctx echo.Context) error {
	var data program.NewProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgram")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.deps)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	prog, err := api.deps.ProgSvc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating program")
	}
	return ctx.JSON(http.StatusCreated, prog)
}

// retrieve returns the program detail: its tasks, plus its participants when
// the caller is the owning organizer. Anyone else gets a 404.
func (api *programApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.deps)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	prog, err := api.deps.ProgSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == program.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding program by ID")
	}

	isOwner := usr.IsOrganizer() && prog.OrganizerID == usr.ID
	if !isOwner {
		enrolled, err := api.deps.ProgSvc.IsEnrolled(ctx.Request().Context(), prog.ID, usr.ID)
		if err != nil {
			return errors.Wrap(err, "checking enrollment")
		}
		if !enrolled {
			return errHttpNotFound
		}
	}

	tasks, err := api.deps.ProgSvc.QueryTasksByProgramID(ctx.Request().Context(), prog.ID)
	if err != nil {
		return errors.Wrap(err, "querying program tasks")
	}
	if tasks == nil {
		tasks = []program.Task{}
	}

	resp := ProgramDetailResponse{Program: prog, Tasks: tasks}
	if isOwner {
		participants, err := api.deps.ProgSvc.QueryParticipants(ctx.Request().Context(), prog.ID)
		if err != nil {
			return errors.Wrap(err, "querying program participants")
		}
		if participants == nil {
			participants = []user.User{}
		}
		resp.Participants = participants
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *programApi) queryParticipants(ctx echo.Context) error {
	prog, ok := ctx.Get("program").(program.Program)
	if !ok {
		return errors.Wrap(errProgNotFoundInCtx, "retrieving program from context")
	}

	participants, err := api.deps.ProgSvc.QueryParticipants(ctx.Request().Context(), prog.ID)
	if err != nil {
		return errors.Wrap(err, "querying program participants")
	}
	if participants == nil {
		participants = []user.User{}
	}
	return ctx.JSON(http.StatusOK, participants)
}

func (api *programApi) enroll(ctx echo.Context) error {
	prog, ok := ctx.Get("program").(program.Program)
	if !ok {
		return errors.Wrap(errProgNotFoundInCtx, "retrieving program from context")
	}

	var data program.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	enr, err := api.deps.ProgSvc.Enroll(ctx.Request().Context(), prog, data)
	if err != nil {
		switch errors.Cause(err) {
		case program.ErrAlreadyEnrolled, program.ErrParticipantNotFound:
			return core.NewValidationError(nil, core.FieldError{Field: "participant_id", Error: err.Error()})
		}
		return errors.Wrap(err, "enrolling participant")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *programApi) createTask(ctx echo.Context) error {
	prog, ok := ctx.Get("program").(program.Program)
	if !ok {
		return errors.Wrap(errProgNotFoundInCtx, "retrieving program from context")
	}

	var data program.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	task, err := api.deps.ProgSvc.CreateTask(ctx.Request().Context(), prog, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, task)
}

// ctxOwnedProgramMiddleware resolves the :id path param to a program owned by
// the context user and sets it as "program". Dangling ids and programs owned
// by someone else both get a 404.
func ctxOwnedProgramMiddleware(deps *Deps) echo.MiddlewareFunc {
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
			prog, err := deps.ProgSvc.GetByID(ctx.Request().Context(), id)
			if err != nil {
				if errors.Cause(err) == program.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding program by ID")
			}
			if prog.OrganizerID != ctxUsr.ID {
				return errHttpNotFound
			}
			ctx.Set("program", prog)
			return next(ctx)
		}
	}
}

type ProgramDetailResponse struct {
	Program      program.Program `json:"program"`
	Tasks        []program.Task  `json:"tasks"`
	Participants []user.User     `json:"participants,omitempty"`
}
