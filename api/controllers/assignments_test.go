package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/angelmondragon/servicedesk-backend/internal/accomplishments"
	"github.com/angelmondragon/servicedesk-backend/internal/assignments"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	"github.com/angelmondragon/servicedesk-backend/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssignments struct {
	assignments.Service
	complete         assignments.CompleteInput
	saved            assignments.SaveTimeInput
	includeCompleted bool
	err              error
}

func (s *stubAssignments) CompleteWork(_ context.Context, in assignments.CompleteInput) (*assignments.Result, error) {
	s.complete = in
	if s.err != nil {
		return nil, s.err
	}
	outcome := accomplishments.Outcome{Status: enums.ReportStatusFailed, Message: accomplishments.MessageSubmitFailed}
	return &assignments.Result{Report: &outcome}, nil
}

func (s *stubAssignments) SaveTime(_ context.Context, in assignments.SaveTimeInput) (*assignments.Result, error) {
	s.saved = in
	return &assignments.Result{}, s.err
}

func (s *stubAssignments) ListMine(_ context.Context, _ types.Actor, includeCompleted bool) ([]assignments.AssignmentDTO, error) {
	s.includeCompleted = includeCompleted
	return []assignments.AssignmentDTO{}, s.err
}

func TestCompleteWorkFailedReportStillSucceeds(t *testing.T) {
	svc := &stubAssignments{}
	body := `{"remark":"ok","resolution":"Replaced cable","testing":"Pinged","test_scenario":"LAN","ipcr_code_id":12}`

	resp, env := call(t, CompleteWork(svc, logger.Nop()), http.MethodPost, "/assignments/4/complete", body, map[string]string{"assignmentId": "4"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, string(env.Data), accomplishments.MessageSubmitFailed)
	assert.Equal(t, uint(4), svc.complete.AssignmentID)
	assert.Equal(t, "Replaced cable", svc.complete.Details.Resolution)
	require.NotNil(t, svc.complete.Details.IPCRCodeID)
	assert.Equal(t, int64(12), *svc.complete.Details.IPCRCodeID)
}

func TestCompleteWorkLeavesMissingFieldsToService(t *testing.T) {
	svc := &stubAssignments{err: pkgerrors.New(pkgerrors.CodeValidation, "work details required").
		WithDetails(map[string]any{"missing": []string{"testing"}})}

	resp, env := call(t, CompleteWork(svc, logger.Nop()), http.MethodPost, "/assignments/4/complete", `{"remark":"ok"}`, map[string]string{"assignmentId": "4"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "ok", svc.complete.Details.Remark)
	assert.Equal(t, map[string]any{"missing": []any{"testing"}}, env.Error.Details)
}

func TestSaveTimeAndListQuery(t *testing.T) {
	svc := &stubAssignments{}
	resp, _ := call(t, SaveTime(svc, logger.Nop()), http.MethodPut, "/assignments/4/time", `{"minutes":5,"seconds":30}`, map[string]string{"assignmentId": "4"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 5, svc.saved.Minutes)
	assert.Equal(t, 30, svc.saved.Seconds)

	resp, _ = call(t, SaveTime(svc, logger.Nop()), http.MethodPut, "/assignments/4/time", `{"minutes":-1,"seconds":0}`, map[string]string{"assignmentId": "4"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp, _ = call(t, ListMyAssignments(svc, logger.Nop()), http.MethodGet, "/assignments?include_completed=true", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, svc.includeCompleted)

	resp, _ = call(t, ListMyAssignments(svc, logger.Nop()), http.MethodGet, "/assignments?include_completed=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
