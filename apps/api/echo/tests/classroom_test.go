package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

type classroomFixture struct {
	organizer user.User
	org2      user.User
	part1     user.User
	part2     user.User
	stranger  user.User
	prog      program.Program
}

// seedClassroom creates an organizer owning a program with part1 & part2
// enrolled, a second organizer, and an unenrolled participant.
func seedClassroom(t *testing.T) classroomFixture {
	t.Helper()
	resetDB(t)

	fix := classroomFixture{
		organizer: testutil.CreateUser(t, usrRepo, "Org", "One", "org1", "org1@test.cd", "", user.RoleOrganizer, true),
		org2:      testutil.CreateUser(t, usrRepo, "Org", "Two", "org2", "org2@test.cd", "", user.RoleOrganizer, true),
		part1:     testutil.CreateUser(t, usrRepo, "Part", "One", "part1", "part1@test.cd", "", user.RoleParticipant, true),
		part2:     testutil.CreateUser(t, usrRepo, "Part", "Two", "part2", "part2@test.cd", "", user.RoleParticipant, true),
		stranger:  testutil.CreateUser(t, usrRepo, "Stran", "Ger", "stranger", "stranger@test.cd", "", user.RoleParticipant, true),
	}
	fix.prog = testutil.CreateProgram(t, progRepo, "Algebra", "Math", fix.organizer.ID)
	testutil.CreateEnrollment(t, progRepo, fix.prog.ID, fix.part1.ID)
	testutil.CreateEnrollment(t, progRepo, fix.prog.ID, fix.part2.ID)
	return fix
}

// newSubmitRequest builds the multipart form request used by the submission
// endpoint.
func newSubmitRequest(t *testing.T, path, token, text string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("submission_text", text); err != nil {
		t.Fatalf("WriteField(): %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart.Writer.Close(): %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	return req, rec
}

func Test_programApi_createAndQuery(t *testing.T) {
	fix := seedClassroom(t)

	orgToken := getToken(t, fix.organizer)
	partToken := getToken(t, fix.part1)
	strangerToken := getToken(t, fix.stranger)

	// participants cannot create programs
	req, rec := newAuthRequest(http.MethodPost, "/v1/programs", partToken, marchallObj(t, program.NewProgram{Name: "Piano", Subject: "Music"}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)

	// an organizer can
	req, rec = newAuthRequest(http.MethodPost, "/v1/programs", orgToken, marchallObj(t, program.NewProgram{Name: "Geometry", Subject: "Math"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var created program.Program
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if created.OrganizerID != fix.organizer.ID {
		t.Errorf("failed! organizer_id = %d; want %d", created.OrganizerID, fix.organizer.ID)
	}

	progPath := "/v1/programs/" + strconv.Itoa(fix.prog.ID)
	tests := []httpTest{
		{name: "auth required", method: http.MethodGet, path: "/v1/programs", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "organizer sees owned programs", method: http.MethodGet, path: "/v1/programs", token: orgToken,
			wantCode: http.StatusOK, wantData: marchallList(t, fix.prog, created),
		},
		{
			name: "participant sees enrolled programs", method: http.MethodGet, path: "/v1/programs", token: partToken,
			wantCode: http.StatusOK, wantData: marchallList(t, fix.prog),
		},
		{
			name: "unenrolled participant sees none", method: http.MethodGet, path: "/v1/programs", token: strangerToken,
			wantCode: http.StatusOK, wantData: marchallList(t),
		},
		{
			name: "owner detail includes participants", method: http.MethodGet, path: progPath, token: orgToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.ProgramDetailResponse{
				Program: fix.prog, Tasks: []program.Task{}, Participants: []user.User{fix.part1, fix.part2},
			}),
		},
		{
			name: "enrolled detail omits participants", method: http.MethodGet, path: progPath, token: partToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.ProgramDetailResponse{Program: fix.prog, Tasks: []program.Task{}}),
		},
		{
			name: "stranger gets a 404", method: http.MethodGet, path: progPath, token: strangerToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "other organizer gets a 404", method: http.MethodGet, path: progPath, token: getToken(t, fix.org2),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_programApi_enroll(t *testing.T) {
	fix := seedClassroom(t)

	path := "/v1/programs/" + strconv.Itoa(fix.prog.ID) + "/enrollments"
	tests := []httpTest{
		{
			name: "participant not allowed", token: getToken(t, fix.part1),
			body:     marchallObj(t, program.NewEnrollment{ParticipantID: fix.stranger.ID}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "non-owner organizer gets a 404", token: getToken(t, fix.org2),
			body:     marchallObj(t, program.NewEnrollment{ParticipantID: fix.stranger.ID}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "unknown participant", token: getToken(t, fix.organizer),
			body:     marchallObj(t, program.NewEnrollment{ParticipantID: 404}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"participant_id": "participant not found"}),
		},
		{
			name: "an organizer cannot be enrolled", token: getToken(t, fix.organizer),
			body:     marchallObj(t, program.NewEnrollment{ParticipantID: fix.org2.ID}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"participant_id": "participant not found"}),
		},
		{
			name: "already enrolled", token: getToken(t, fix.organizer),
			body:     marchallObj(t, program.NewEnrollment{ParticipantID: fix.part1.ID}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"participant_id": "participant is already enrolled in this program"}),
		},
		{
			name: "enrolled", token: getToken(t, fix.organizer),
			body:     marchallObj(t, program.NewEnrollment{ParticipantID: fix.stranger.ID}),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = path

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
				}
				var enr program.Enrollment
				if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if enr.ParticipantID != fix.stranger.ID || enr.ProgramID != fix.prog.ID {
					t.Errorf("failed! enrollment = %+v", enr)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_taskApi_createAndNotify(t *testing.T) {
	fix := seedClassroom(t)

	path := "/v1/programs/" + strconv.Itoa(fix.prog.ID) + "/tasks"
	body := marchallObj(t, program.NewTask{Title: "Homework 1", Description: "Chapter 1 exercises", Category: program.CategoryHomework, DueDate: "2025-01-10"})

	// participants cannot create tasks
	req, rec := newAuthRequest(http.MethodPost, path, getToken(t, fix.part1), body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)

	// the owning organizer can
	req, rec = newAuthRequest(http.MethodPost, path, getToken(t, fix.organizer), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var task program.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if task.DueDate == nil || task.DueDate.Format("2006-01-02") != "2025-01-10" {
		t.Errorf("failed! due_date = %v; want 2025-01-10", task.DueDate)
	}

	// every enrolled participant is notified
	partToken := getToken(t, fix.part1)
	req, rec = newAuthRequest(http.MethodGet, "/v1/notifications/unread-count", partToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.UnreadCountResponse{UnreadCount: 1})}, rec)

	// listing marks them read
	req, rec = newAuthRequest(http.MethodGet, "/v1/notifications", partToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	var notifs []notification.Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &notifs); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("failed! notifications = %d; want 1", len(notifs))
	}
	if notifs[0].Type != notification.TypeTask || !notifs[0].IsRead {
		t.Errorf("failed! notification = %+v", notifs[0])
	}
	if notifs[0].ReferenceID == nil || *notifs[0].ReferenceID != task.ID {
		t.Errorf("failed! reference_id = %v; want %d", notifs[0].ReferenceID, task.ID)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/notifications/unread-count", partToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.UnreadCountResponse{UnreadCount: 0})}, rec)

	// the organizer did not notify themselves
	req, rec = newAuthRequest(http.MethodGet, "/v1/notifications/unread-count", getToken(t, fix.organizer))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.UnreadCountResponse{UnreadCount: 0})}, rec)
}

func Test_taskApi_submitGradeAndFeedback(t *testing.T) {
	fix := seedClassroom(t)
	ctx := context.Background()

	// a task whose due date has passed
	task := testutil.CreateTask(t, progRepo, "Homework 1", program.CategoryHomework, fix.prog,
		time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))
	taskPath := "/v1/tasks/" + strconv.Itoa(task.ID)

	orgToken := getToken(t, fix.organizer)
	part1Token := getToken(t, fix.part1)

	// organizers cannot submit
	req, rec := newSubmitRequest(t, taskPath+"/submissions", orgToken, "my answer")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)

	// unenrolled participants get a 404
	req, rec = newSubmitRequest(t, taskPath+"/submissions", getToken(t, fix.stranger), "my answer")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)

	// an enrolled participant's submission lands, flagged late
	req, rec = newSubmitRequest(t, taskPath+"/submissions", part1Token, "my answer")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var sub submission.Submission
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if !sub.IsSubmitted || !sub.IsLate {
		t.Errorf("failed! submission = %+v; want submitted & late", sub)
	}
	if sub.SubmissionText != "my answer" {
		t.Errorf("failed! submission_text = %q", sub.SubmissionText)
	}

	// feedback requires a prior submission
	req, rec = newAuthRequest(http.MethodPost, taskPath+"/feedback", orgToken,
		marchallObj(t, submission.NewFeedback{ParticipantID: fix.part2.ID, FeedbackText: "Good effort", Rating: 4}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"participant_id": "no submission found for this participant"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodPost, taskPath+"/feedback", orgToken,
		marchallObj(t, submission.NewFeedback{ParticipantID: fix.part1.ID, FeedbackText: "Good effort", Rating: 4}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
	}

	// participants cannot grade
	gradeBody := marchallObj(t, grade.NewGrades{Grades: map[int]*int{fix.part1.ID: intPtr(85)}})
	req, rec = newAuthRequest(http.MethodPost, taskPath+"/grades", part1Token, gradeBody)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	if grades, err := gradeRepo.QueryGradesByTaskID(ctx, task.ID); err != nil || len(grades) != 0 {
		t.Errorf("failed! grades = %v, err %v; want none", grades, err)
	}

	// grading twice with the same value stays idempotent
	for i := 0; i < 2; i++ {
		req, rec = newAuthRequest(http.MethodPost, taskPath+"/grades", orgToken, gradeBody)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}
	}
	grades, err := gradeRepo.QueryGradesByTaskID(ctx, task.ID)
	if err != nil {
		t.Fatalf("QueryGradesByTaskID() failed: %v", err)
	}
	if len(grades) != 1 || grades[0].Value != 85 {
		t.Fatalf("failed! grades = %+v; want one with value 85", grades)
	}

	// the graded participant was notified with the value
	notifs, err := notifRepo.QueryNotificationsByUserID(ctx, fix.part1.ID)
	if err != nil {
		t.Fatalf("QueryNotificationsByUserID() failed: %v", err)
	}
	var gradeNotifs []notification.Notification
	for _, n := range notifs {
		if n.Type == notification.TypeGrade {
			gradeNotifs = append(gradeNotifs, n)
		}
	}
	if len(gradeNotifs) != 2 { // one per grading call
		t.Fatalf("failed! grade notifications = %d; want 2", len(gradeNotifs))
	}
	if !strings.Contains(gradeNotifs[0].Message, "85") {
		t.Errorf("failed! message %q does not embed the value", gradeNotifs[0].Message)
	}

	// the grading grid pairs participants with grades
	req, rec = newAuthRequest(http.MethodGet, taskPath+"/grades", orgToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, echoapi.GradingGridResponse{Participants: []user.User{fix.part1, fix.part2}, Grades: grades}),
	}, rec)

	// the participant's task detail carries their submission, feedback & grade
	req, rec = newAuthRequest(http.MethodGet, taskPath, part1Token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	var detail echoapi.TaskDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if detail.Submission == nil || detail.Submission.ID != sub.ID {
		t.Errorf("failed! detail submission = %+v", detail.Submission)
	}
	if detail.Feedback == nil || detail.Feedback.Rating != 4 {
		t.Errorf("failed! detail feedback = %+v", detail.Feedback)
	}
	if detail.Grade == nil || detail.Grade.Value != 85 {
		t.Errorf("failed! detail grade = %+v", detail.Grade)
	}

	// unenrolled users get a 404 on the detail
	req, rec = newAuthRequest(http.MethodGet, taskPath, getToken(t, fix.stranger))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
}

func Test_taskApi_delete(t *testing.T) {
	fix := seedClassroom(t)
	ctx := context.Background()

	task := testutil.CreateTask(t, progRepo, "Homework 1", program.CategoryHomework, fix.prog)
	testutil.CreateSubmission(t, subRepo, task.ID, fix.part1.ID, "my answer")
	taskPath := "/v1/tasks/" + strconv.Itoa(task.ID)

	// participants cannot delete
	req, rec := newAuthRequest(http.MethodDelete, taskPath, getToken(t, fix.part1))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)

	// a non-author organizer gets a 404
	req, rec = newAuthRequest(http.MethodDelete, taskPath, getToken(t, fix.org2))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)

	// the author can; dependents go with it
	req, rec = newAuthRequest(http.MethodDelete, taskPath, getToken(t, fix.organizer))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusNoContent, rec.Body.String())
	}

	if _, err := progRepo.GetTaskByID(ctx, task.ID); err != program.ErrTaskNotFound {
		t.Errorf("GetTaskByID() err = %v; want %v", err, program.ErrTaskNotFound)
	}
	if subs, err := subRepo.QuerySubmissionsByTaskID(ctx, task.ID); err != nil || len(subs) != 0 {
		t.Errorf("failed! submissions = %v, err %v; want none", subs, err)
	}
}

func intPtr(v int) *int { return &v }
