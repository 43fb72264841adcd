package accomplishments

import (
	"testing"

	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
)

func TestLinkUpdates(t *testing.T) {
	code := int64(12)

	assert.Equal(t, map[string]any{"ipcr_code_id": int64(12), "report_status": enums.ReportStatusLinked},
		LinkUpdates(nil, enums.ReportStatusUnlinked, 12))

	assert.Empty(t, LinkUpdates(&code, enums.ReportStatusConfirmed, 12), "same code keeps its confirmation")
	assert.Empty(t, LinkUpdates(&code, enums.ReportStatusFailed, 12))

	changed := LinkUpdates(&code, enums.ReportStatusConfirmed, 13)
	assert.Equal(t, int64(13), changed["ipcr_code_id"])
	assert.Equal(t, enums.ReportStatusLinked, changed["report_status"])
}

func TestNeedsReport(t *testing.T) {
	assert.True(t, NeedsReport(enums.ReportStatusLinked))
	assert.True(t, NeedsReport(enums.ReportStatusFailed))
	assert.True(t, NeedsReport(enums.ReportStatusPending))
	assert.False(t, NeedsReport(enums.ReportStatusConfirmed))
	assert.False(t, NeedsReport(enums.ReportStatusUnlinked))
}
