package hologram

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// firstEntityID keeps line entity ids clear of the low ids hosts hand out to
// their own entities.
const firstEntityID = 1 << 20

var nextEntityID atomic.Int32

func init() {
	nextEntityID.Store(firstEntityID)
}

// Line is one row of text belonging to a page.
//
// EntityID identifies the line in interaction events; it is unique for the
// lifetime of the process. Offset is maintained by Display.RealignLines.
type Line struct {
	ID       uuid.UUID
	EntityID int32
	Content  string
	Height   float64
	Offset   Offset
}

// NewLine creates a line with a fresh entity id and the default height.
func NewLine(content string) *Line {
	return &Line{
		ID:       uuid.New(),
		EntityID: nextEntityID.Add(1),
		Content:  content,
		Height:   DefaultLineHeight,
	}
}

// Page is an ordered set of lines plus the actions run when it is clicked.
type Page struct {
	Lines   []*Line
	Actions map[ClickType][]Action
}

// hasEntity reports whether a line on the page carries the entity id.
func (p *Page) hasEntity(id int32) bool {
	for _, l := range p.Lines {
		if l.EntityID == id {
			return true
		}
	}
	return false
}

// LineView is the immutable rendering view of a line.
type LineView struct {
	EntityID int32    `json:"entity_id"`
	Content  string   `json:"content"`
	Offset   Offset   `json:"offset"`
	Location Location `json:"location"`
}

// View is the immutable rendering view of one page of a display, handed to
// presentation backends.
type View struct {
	DisplayID string     `json:"display_id"`
	Name      string     `json:"name,omitempty"`
	Page      int        `json:"page"`
	Pages     int        `json:"pages"`
	Location  Location   `json:"location"`
	Lines     []LineView `json:"lines"`
}
