package assignments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/servicedesk-backend/internal/accomplishments"
	"github.com/angelmondragon/servicedesk-backend/internal/notifications"
	"github.com/angelmondragon/servicedesk-backend/pkg/db"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/ipcr"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	"github.com/angelmondragon/servicedesk-backend/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReporter struct {
	calls   []accomplishments.Target
	outcome accomplishments.Outcome
}

func (s *stubReporter) Report(ctx context.Context, _ types.Actor, store accomplishments.ReportStore, target accomplishments.Target) accomplishments.Outcome {
	s.calls = append(s.calls, target)
	_ = store.UpdateReport(ctx, target.ID, map[string]any{"report_status": s.outcome.Status, "reported_at": now})
	return s.outcome
}

type fixture struct {
	client   *db.Client
	repo     Repository
	reporter *stubReporter
	svc      Service
	ana      models.User
	ben      models.User
	request  models.Request
}

func strPtr(v string) *string { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{client: dbtest.Client(t)}
	conn := f.client.DB()

	f.ana = models.User{FirstName: "Ana", LastName: "Reyes", Username: "ana", Email: "ana@example.gov", PasswordHash: "x", Cats: strPtr("00123")}
	f.ben = models.User{FirstName: "Ben", LastName: "Cruz", Username: "ben", Email: "ben@example.gov", PasswordHash: "x"}
	require.NoError(t, conn.Create(&f.ana).Error)
	require.NoError(t, conn.Create(&f.ben).Error)

	service, category, affected := uint(1), 4, 2
	prio := enums.PriorityP2
	f.request = models.Request{Name: "Records", Remarks: "printer jam", ServiceID: &service, CategoryID: &category, Priority: &prio, NoOfAffected: &affected}
	require.NoError(t, conn.Create(&f.request).Error)

	f.repo = NewRepository(conn)
	f.reporter = &stubReporter{outcome: accomplishments.Outcome{Status: enums.ReportStatusConfirmed, Message: accomplishments.MessageConfirmed}}
	f.svc = f.newService(t, f.reporter)
	return f
}

func (f *fixture) newService(t *testing.T, reporter Reporter) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     f.repo,
		Tx:       f.client,
		Reporter: reporter,
		Logger:   logger.Nop(),
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)
	return svc
}

func (f *fixture) assign(t *testing.T, user models.User) models.Assignment {
	t.Helper()
	a := models.Assignment{RequestID: f.request.ID, UserID: user.ID}
	require.NoError(t, f.client.DB().Create(&a).Error)
	return a
}

func (f *fixture) completed(t *testing.T, user models.User) models.Assignment {
	t.Helper()
	a := f.assign(t, user)
	require.NoError(t, f.client.DB().Model(&models.Assignment{}).Where("id = ?", a.ID).Updates(map[string]any{
		"status":     enums.WorkStatusCompleted,
		"time":       4,
		"resolution": "cleared tray",
	}).Error)
	return a
}

func actorOf(u models.User) types.Actor {
	return types.Actor{UserID: u.ID, Role: enums.UserRoleStaff}
}

func TestWorkFlowThroughCompletion(t *testing.T) {
	f := newFixture(t)
	a := f.assign(t, f.ana)
	ctx := context.Background()
	ana := actorOf(f.ana)

	res, err := f.svc.ProceedToWork(ctx, ana, a.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WorkStatusOnProcess, res.Assignment.Status)
	assert.True(t, res.Assignment.StartPause)
	assert.Equal(t, PhaseEntering, res.Assignment.Phase)
	require.NotNil(t, res.Assignment.ProcessDatetime)

	_, err = f.svc.SaveTime(ctx, SaveTimeInput{Actor: ana, AssignmentID: a.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CompleteWork(ctx, CompleteInput{Actor: ana, AssignmentID: a.ID, Details: details()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "time entry still open")

	res, err = f.svc.SaveTime(ctx, SaveTimeInput{Actor: ana, AssignmentID: a.ID, Minutes: 5, Seconds: 30})
	require.NoError(t, err)
	assert.False(t, res.Assignment.StartPause)
	assert.Equal(t, "5 min 30 sec", res.Assignment.FormattedTime)

	code := int64(12)
	input := details()
	input.IPCRCodeID = &code
	res, err = f.svc.CompleteWork(ctx, CompleteInput{Actor: ana, AssignmentID: a.ID, Details: input})
	require.NoError(t, err)
	assert.Equal(t, enums.WorkStatusCompleted, res.Assignment.Status)
	require.NotNil(t, res.Assignment.CompletedAt)
	require.NotNil(t, res.Report)
	assert.True(t, res.Report.Confirmed())
	assert.Equal(t, enums.ReportStatusConfirmed, res.Assignment.ReportStatus)

	require.Len(t, f.reporter.calls, 1)
	call := f.reporter.calls[0]
	assert.Equal(t, "00123", call.EmpCode)
	assert.Equal(t, "cleared tray", call.Description)
	assert.Equal(t, int64(12), call.IPCRCodeID)
	assert.Equal(t, enums.ReportTargetAssignment, call.Kind)
	assert.True(t, call.Date.Equal(now), "report is dated on completion")
}

func TestCompleteWithoutCodeSkipsReport(t *testing.T) {
	f := newFixture(t)
	a := f.assign(t, f.ana)
	require.NoError(t, f.client.DB().Model(&models.Assignment{}).Where("id = ?", a.ID).
		Updates(map[string]any{"status": enums.WorkStatusOnProcess, "time": 1}).Error)

	res, err := f.svc.CompleteWork(context.Background(), CompleteInput{Actor: actorOf(f.ana), AssignmentID: a.ID, Details: details()})
	require.NoError(t, err)
	assert.Nil(t, res.Report)
	assert.Equal(t, enums.ReportStatusUnlinked, res.Assignment.ReportStatus)
	assert.Empty(t, f.reporter.calls)
}

func TestOnlyTheAssigneeWorks(t *testing.T) {
	f := newFixture(t)
	a := f.assign(t, f.ana)

	admin := types.Actor{UserID: f.ben.ID, Role: enums.UserRoleAdmin}
	_, err := f.svc.ProceedToWork(context.Background(), admin, a.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.ProceedToWork(context.Background(), types.Actor{}, a.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = f.svc.ProceedToWork(context.Background(), actorOf(f.ana), 999)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestProceedOnDeletedRequest(t *testing.T) {
	f := newFixture(t)
	a := f.assign(t, f.ana)
	require.NoError(t, f.client.DB().Delete(&f.request).Error)

	_, err := f.svc.ProceedToWork(context.Background(), actorOf(f.ana), a.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var stored models.Assignment
	require.NoError(t, f.client.DB().First(&stored, a.ID).Error)
	assert.Equal(t, enums.WorkStatusPending, stored.Status)
}

func TestProceedTwiceIsStateConflict(t *testing.T) {
	f := newFixture(t)
	a := f.assign(t, f.ana)

	_, err := f.svc.ProceedToWork(context.Background(), actorOf(f.ana), a.ID)
	require.NoError(t, err)
	_, err = f.svc.ProceedToWork(context.Background(), actorOf(f.ana), a.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestFailedReportKeepsCompletion(t *testing.T) {
	f := newFixture(t)
	a := f.assign(t, f.ana)
	require.NoError(t, f.client.DB().Model(&models.Assignment{}).Where("id = ?", a.ID).
		Updates(map[string]any{"status": enums.WorkStatusOnProcess, "time": 2}).Error)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 12, "individual_output": "Resolved tickets", "individual_final_output_id": 3}})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "server exploded")
	}))
	defer srv.Close()

	client, err := ipcr.NewClient(srv.URL)
	require.NoError(t, err)
	conn := f.client.DB()
	notifier, err := notifications.NewService(notifications.NewRepository(conn))
	require.NoError(t, err)
	reporter, err := accomplishments.NewReporter(accomplishments.ReporterParams{
		Client:   client,
		Logs:     accomplishments.NewLogRepository(conn),
		Notifier: notifier,
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)
	svc := f.newService(t, reporter)

	code := int64(12)
	input := details()
	input.IPCRCodeID = &code
	res, err := svc.CompleteWork(context.Background(), CompleteInput{Actor: actorOf(f.ana), AssignmentID: a.ID, Details: input})
	require.NoError(t, err, "a failed report never fails the completion")
	require.NotNil(t, res.Report)
	assert.Equal(t, accomplishments.MessageSubmitFailed, res.Report.Message)
	assert.Equal(t, "server exploded", res.Report.Detail)

	var stored models.Assignment
	require.NoError(t, conn.First(&stored, a.ID).Error)
	assert.Equal(t, enums.WorkStatusCompleted, stored.Status)
	require.NotNil(t, stored.IPCRCodeID)
	assert.Equal(t, int64(12), *stored.IPCRCodeID)
	assert.Equal(t, enums.ReportStatusFailed, stored.ReportStatus)
	assert.NotNil(t, stored.ReportedAt)

	var notes []models.Notification
	require.NoError(t, conn.Where("user_id = ?", f.ana.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, enums.NotificationLevelDanger, notes[0].Level)

	var logs []models.AccomplishmentReport
	require.NoError(t, conn.Find(&logs).Error)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, *logs[0].HTTPStatus)
}

func TestLinkAccomplishment(t *testing.T) {
	f := newFixture(t)
	a := f.completed(t, f.ana)
	ctx := context.Background()
	ana := actorOf(f.ana)

	res, err := f.svc.LinkAccomplishment(ctx, LinkInput{Actor: ana, AssignmentID: a.ID, IPCRCodeID: 12})
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	assert.Equal(t, enums.ReportStatusConfirmed, res.Assignment.ReportStatus)
	require.Len(t, f.reporter.calls, 1)

	res, err = f.svc.LinkAccomplishment(ctx, LinkInput{Actor: ana, AssignmentID: a.ID, IPCRCodeID: 12})
	require.NoError(t, err)
	assert.Nil(t, res.Report, "confirmed code is not sent twice")
	assert.Len(t, f.reporter.calls, 1)

	f.reporter.outcome = accomplishments.Outcome{Status: enums.ReportStatusFailed, Message: accomplishments.MessageCodeNotFound}
	res, err = f.svc.LinkAccomplishment(ctx, LinkInput{Actor: ana, AssignmentID: a.ID, IPCRCodeID: 13})
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusFailed, res.Assignment.ReportStatus)
	assert.Equal(t, int64(13), *res.Assignment.IPCRCodeID)

	f.reporter.outcome = accomplishments.Outcome{Status: enums.ReportStatusConfirmed, Message: accomplishments.MessageConfirmed}
	admin := types.Actor{UserID: f.ben.ID, Role: enums.UserRoleAdmin}
	res, err = f.svc.LinkAccomplishment(ctx, LinkInput{Actor: admin, AssignmentID: a.ID, IPCRCodeID: 13})
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusConfirmed, res.Assignment.ReportStatus, "failed report is retried on re-link")
	assert.Len(t, f.reporter.calls, 3)
}

// relinkingClient links the same assignment again from inside the first
// submission, the way a second browser tab would while IPCR is still answering.
type relinkingClient struct {
	submits int
	during  func()
}

func (c *relinkingClient) ListOutputCodes(context.Context, string) ([]ipcr.OutputCode, error) {
	return []ipcr.OutputCode{{ID: 12, IndividualOutput: json.RawMessage(`"Resolved tickets"`)}}, nil
}

func (c *relinkingClient) SubmitAccomplishment(context.Context, ipcr.Accomplishment) error {
	c.submits++
	if during := c.during; during != nil {
		c.during = nil
		during()
	}
	return nil
}

func (f *fixture) reportingService(t *testing.T, client accomplishments.Client) Service {
	t.Helper()
	conn := f.client.DB()
	notifier, err := notifications.NewService(notifications.NewRepository(conn))
	require.NoError(t, err)
	reporter, err := accomplishments.NewReporter(accomplishments.ReporterParams{
		Client:   client,
		Logs:     accomplishments.NewLogRepository(conn),
		Notifier: notifier,
		Logger:   logger.Nop(),
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)
	return f.newService(t, reporter)
}

func TestConcurrentLinkSubmitsOnce(t *testing.T) {
	f := newFixture(t)
	a := f.completed(t, f.ana)
	ctx := context.Background()
	input := LinkInput{Actor: actorOf(f.ana), AssignmentID: a.ID, IPCRCodeID: 12}

	client := &relinkingClient{}
	svc := f.reportingService(t, client)
	var second *Result
	client.during = func() {
		var err error
		second, err = svc.LinkAccomplishment(ctx, input)
		require.NoError(t, err)
	}

	first, err := svc.LinkAccomplishment(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, 1, client.submits)
	require.NotNil(t, second)
	require.NotNil(t, second.Report)
	assert.Equal(t, enums.ReportStatusPending, second.Report.Status)
	assert.Equal(t, accomplishments.MessageInFlight, second.Report.Message)
	require.NotNil(t, first.Report)
	assert.True(t, first.Report.Confirmed())
	assert.Equal(t, enums.ReportStatusConfirmed, first.Assignment.ReportStatus)

	var logs []models.AccomplishmentReport
	require.NoError(t, f.client.DB().Find(&logs).Error)
	assert.Len(t, logs, 1)
}

func TestStalePendingReportIsRetried(t *testing.T) {
	f := newFixture(t)
	a := f.completed(t, f.ana)
	ctx := context.Background()
	input := LinkInput{Actor: actorOf(f.ana), AssignmentID: a.ID, IPCRCodeID: 12}

	client := &relinkingClient{}
	svc := f.reportingService(t, client)

	mark := func(claimedAt time.Time) {
		require.NoError(t, f.repo.UpdateReport(ctx, a.ID, map[string]any{
			"ipcr_code_id":  int64(12),
			"report_status": enums.ReportStatusPending,
			"reported_at":   claimedAt,
		}))
	}

	mark(now.Add(-time.Second))
	res, err := svc.LinkAccomplishment(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusPending, res.Report.Status, "a live claim blocks the retry")
	assert.Zero(t, client.submits)

	mark(now.Add(-time.Hour))
	res, err = svc.LinkAccomplishment(ctx, input)
	require.NoError(t, err)
	assert.True(t, res.Report.Confirmed(), "an abandoned claim is taken over")
	assert.Equal(t, 1, client.submits)
}

func TestLinkAccomplishmentRejections(t *testing.T) {
	f := newFixture(t)
	pending := f.assign(t, f.ana)
	ctx := context.Background()

	_, err := f.svc.LinkAccomplishment(ctx, LinkInput{Actor: actorOf(f.ana), AssignmentID: pending.ID, IPCRCodeID: 12})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.LinkAccomplishment(ctx, LinkInput{Actor: actorOf(f.ben), AssignmentID: pending.ID, IPCRCodeID: 12})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.LinkAccomplishment(ctx, LinkInput{Actor: actorOf(f.ana), AssignmentID: pending.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, f.reporter.calls)
}

func TestListMine(t *testing.T) {
	f := newFixture(t)
	f.assign(t, f.ana)
	f.assign(t, f.ben)

	mine, err := f.svc.ListMine(context.Background(), actorOf(f.ana), false)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Records", mine[0].RequestName)
	assert.Equal(t, f.ana.ID, mine[0].UserID)
}
