package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

var errBadCursor = errors.New("invalid cursor")

// Cursor marks the last row of a page ordered by (created_at, id) descending.
type Cursor struct {
	CreatedAt time.Time
	ID        uint
}

type cursorWire struct {
	At int64 `json:"t"`
	ID uint  `json:"i"`
}

// NormalizeLimit falls back to DefaultLimit and caps at MaxLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// EncodeCursor renders c as an opaque URL-safe token.
func EncodeCursor(c Cursor) string {
	raw, _ := json.Marshal(cursorWire{At: c.CreatedAt.UnixNano(), ID: c.ID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor reverses EncodeCursor. A blank token means the first page.
func ParseCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadCursor, err)
	}
	var w cursorWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadCursor, err)
	}
	if w.ID == 0 || w.At <= 0 {
		return nil, errBadCursor
	}
	return &Cursor{CreatedAt: time.Unix(0, w.At).UTC(), ID: w.ID}, nil
}

// Page is an offset window over a list already ordered in memory.
type Page struct {
	Offset int
	Limit  int
}

// Window returns slice bounds for p within a list of total items.
func (p Page) Window(total int) (start, end int) {
	start = min(max(p.Offset, 0), total)
	end = min(start+NormalizeLimit(p.Limit), total)
	return start, end
}
