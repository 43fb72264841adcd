// Package accomplishments reports completed work to the external accomplishment
// service. Reporting always runs after the work itself is committed, so its
// failures are recorded and surfaced but never undo the local change.
package accomplishments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	"github.com/angelmondragon/servicedesk-backend/pkg/ipcr"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	"github.com/angelmondragon/servicedesk-backend/pkg/metrics"
	"github.com/angelmondragon/servicedesk-backend/pkg/types"
)

const (
	MessageConfirmed    = "Successfully added to IPCR"
	MessageNoEmpCode    = "Employee code not found"
	MessageFetchFailed  = "Failed to fetch IPCR data"
	MessageCodeNotFound = "IPCR Code not found"
	MessageSubmitFailed = "Failed to submit to IPCR"
	MessageInFlight     = "IPCR submission already in progress"
)

// DefaultClaimTTL is how long a report_pending claim blocks another attempt.
const DefaultClaimTTL = 2 * time.Minute

// Client is the accomplishment service surface the reporter needs.
type Client interface {
	ListOutputCodes(ctx context.Context, empCode string) ([]ipcr.OutputCode, error)
	SubmitAccomplishment(ctx context.Context, report ipcr.Accomplishment) error
}

// Notifier persists the dismissible notice shown to the acting user.
type Notifier interface {
	Notify(ctx context.Context, userID uint, level enums.NotificationLevel, title, message string) (*models.Notification, error)
}

// ReportStore writes report bookkeeping (report_status, reported_at) onto the
// reported record. ClaimReport moves the record to report_pending only if no
// live attempt holds it, and reports whether this caller won.
type ReportStore interface {
	ClaimReport(ctx context.Context, id uint, at, staleBefore time.Time) (bool, error)
	UpdateReport(ctx context.Context, id uint, updates map[string]any) error
}

// Target describes what is being reported.
type Target struct {
	Kind        enums.ReportTarget
	ID          uint
	IPCRCodeID  int64
	EmpCode     string
	Description string
	// Date is the day the work counts for; zero means today.
	Date        time.Time
}

// Outcome is returned next to the mutated record.
type Outcome struct {
	Status  enums.ReportStatus `json:"status"`
	Message string             `json:"message"`
	Detail  string             `json:"detail,omitempty"`
}

func (o Outcome) Confirmed() bool {
	return o.Status == enums.ReportStatusConfirmed
}

// ReporterParams bundles the reporter dependencies.
type ReporterParams struct {
	Client   Client
	Logs     LogRepository
	Notifier Notifier
	Logger   *logger.Logger
	Metrics  *metrics.LifecycleMetrics
	// Location decides the calendar date stamped on the report.
	Location *time.Location
	// ClaimTTL bounds how long a crashed attempt keeps the record pending.
	ClaimTTL time.Duration
	Now      func() time.Time
}

// Reporter runs the lookup-then-submit protocol for one record at a time.
type Reporter struct {
	client   Client
	logs     LogRepository
	notifier Notifier
	logg     *logger.Logger
	metrics  *metrics.LifecycleMetrics
	loc      *time.Location
	claimTTL time.Duration
	now      func() time.Time
}

func NewReporter(p ReporterParams) (*Reporter, error) {
	if p.Client == nil {
		return nil, fmt.Errorf("accomplishment client required")
	}
	if p.Logs == nil {
		return nil, fmt.Errorf("report log repository required")
	}
	if p.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	r := &Reporter{
		client:   p.Client,
		logs:     p.Logs,
		notifier: p.Notifier,
		logg:     p.Logger,
		metrics:  p.Metrics,
		loc:      p.Location,
		claimTTL: p.ClaimTTL,
		now:      p.Now,
	}
	if r.loc == nil {
		r.loc = time.UTC
	}
	if r.claimTTL <= 0 {
		r.claimTTL = DefaultClaimTTL
	}
	if r.now == nil {
		r.now = func() time.Time { return time.Now().UTC() }
	}
	return r, nil
}

type attempt struct {
	outcome    Outcome
	empCode    string
	httpStatus int
	payload    []byte
}

// Report submits target and records the result on store, in the attempt log and
// as a notification for actor. It never returns an error: every failure becomes
// a report_failed outcome. When another attempt holds the record the outcome is
// report_pending and nothing is sent.
func (r *Reporter) Report(ctx context.Context, actor types.Actor, store ReportStore, target Target) Outcome {
	started := time.Now()
	ctx = r.logg.WithFields(ctx, map[string]any{
		string(target.Kind) + "_id": target.ID,
		"ipcr_code_id":              target.IPCRCodeID,
	})

	claimedAt := r.now()
	claimed, err := store.ClaimReport(ctx, target.ID, claimedAt, claimedAt.Add(-r.claimTTL))
	if err != nil {
		r.logg.Error(ctx, "accomplishment.claim_failed", err)
		return Outcome{Status: enums.ReportStatusFailed, Message: MessageSubmitFailed, Detail: "report status could not be recorded"}
	}
	if !claimed {
		r.logg.Info(ctx, "accomplishment.already_in_flight")
		return Outcome{Status: enums.ReportStatusPending, Message: MessageInFlight}
	}

	res := r.attempt(ctx, target)

	if err := store.UpdateReport(ctx, target.ID, map[string]any{
		"report_status": res.outcome.Status,
		"reported_at":   r.now(),
	}); err != nil {
		r.logg.Error(ctx, "accomplishment.mark_outcome_failed", err)
	}

	r.record(ctx, actor, target, res)
	r.notify(ctx, actor, res.outcome)
	r.metrics.ObserveReport(string(target.Kind), string(res.outcome.Status), time.Since(started))

	if res.outcome.Confirmed() {
		r.logg.Info(ctx, "accomplishment.reported")
	} else {
		r.logg.Warn(r.logg.WithFields(ctx, map[string]any{
			"reason": res.outcome.Message,
			"detail": res.outcome.Detail,
		}), "accomplishment.report_failed")
	}
	return res.outcome
}

func (r *Reporter) attempt(ctx context.Context, target Target) attempt {
	empCode := strings.TrimSpace(target.EmpCode)
	if empCode == "" {
		return failed(MessageNoEmpCode, "")
	}

	codes, err := r.client.ListOutputCodes(ctx, empCode)
	if err != nil {
		res := failed(MessageFetchFailed, err.Error())
		res.empCode = empCode
		res.httpStatus = ipcr.StatusCodeOf(err)
		return res
	}

	match := findCode(codes, target.IPCRCodeID)
	if match == nil {
		res := failed(MessageCodeNotFound, fmt.Sprintf("output code %d is not registered for this employee", target.IPCRCodeID))
		res.empCode = empCode
		return res
	}

	day := target.Date
	if day.IsZero() {
		day = r.now()
	}
	report := ipcr.NewAccomplishment(day.In(r.loc), target.Description, empCode, *match)
	payload, _ := json.Marshal(report)

	if err := r.client.SubmitAccomplishment(ctx, report); err != nil {
		detail := err.Error()
		var statusErr *ipcr.StatusError
		if errors.As(err, &statusErr) && statusErr.Body != "" {
			detail = statusErr.Body
		}
		res := failed(MessageSubmitFailed, detail)
		res.empCode = empCode
		res.httpStatus = ipcr.StatusCodeOf(err)
		res.payload = payload
		return res
	}

	return attempt{
		outcome: Outcome{Status: enums.ReportStatusConfirmed, Message: MessageConfirmed},
		empCode: empCode,
		payload: payload,
	}
}

func failed(message, detail string) attempt {
	return attempt{outcome: Outcome{Status: enums.ReportStatusFailed, Message: message, Detail: detail}}
}

func findCode(codes []ipcr.OutputCode, id int64) *ipcr.OutputCode {
	for i := range codes {
		if codes[i].ID == id {
			return &codes[i]
		}
	}
	return nil
}

func (r *Reporter) record(ctx context.Context, actor types.Actor, target Target, res attempt) {
	row := &models.AccomplishmentReport{
		TargetKind:  target.Kind,
		TargetID:    target.ID,
		ActorUserID: actor.UserID,
		IPCRCodeID:  target.IPCRCodeID,
		Outcome:     res.outcome.Status,
		CreatedAt:   r.now(),
	}
	if res.empCode != "" {
		row.EmpCode = &res.empCode
	}
	if res.httpStatus != 0 {
		row.HTTPStatus = &res.httpStatus
	}
	if !res.outcome.Confirmed() {
		msg := res.outcome.Message
		if res.outcome.Detail != "" {
			msg += ": " + res.outcome.Detail
		}
		row.Error = &msg
	}
	if len(res.payload) > 0 {
		payload := string(res.payload)
		row.Payload = &payload
	}
	if err := r.logs.Create(ctx, row); err != nil {
		r.logg.Error(ctx, "accomplishment.log_failed", err)
	}
}

func (r *Reporter) notify(ctx context.Context, actor types.Actor, outcome Outcome) {
	if actor.IsZero() {
		return
	}
	level := enums.NotificationLevelDanger
	if outcome.Confirmed() {
		level = enums.NotificationLevelSuccess
	}
	if _, err := r.notifier.Notify(ctx, actor.UserID, level, outcome.Message, outcome.Detail); err != nil {
		r.logg.Error(ctx, "accomplishment.notify_failed", err)
	}
}
