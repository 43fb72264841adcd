package accomplishments

import "github.com/angelmondragon/servicedesk-backend/pkg/enums"

// LinkUpdates returns the column changes for attaching code to a record that
// currently holds (current, status). Re-linking the same code keeps its report
// status and returns an empty map; a different code starts over at linked. The
// code is never cleared.
func LinkUpdates(current *int64, status enums.ReportStatus, code int64) map[string]any {
	if current != nil && *current == code && status != enums.ReportStatusUnlinked {
		return map[string]any{}
	}
	return map[string]any{
		"ipcr_code_id":  code,
		"report_status": enums.ReportStatusLinked,
	}
}

// NeedsReport reports whether a linked record may be (re)submitted. Confirmed
// reports are never sent twice. A pending one is handed to the reporter, whose
// claim only succeeds once the earlier attempt has gone stale.
func NeedsReport(status enums.ReportStatus) bool {
	switch status {
	case enums.ReportStatusLinked, enums.ReportStatusFailed, enums.ReportStatusPending:
		return true
	default:
		return false
	}
}
