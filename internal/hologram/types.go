package hologram

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Ticks counts host clock ticks, the smallest schedulable time unit.
type Ticks int64

// Duration converts a tick count into wall time for the given tick length.
func (t Ticks) Duration(tick time.Duration) time.Duration {
	return time.Duration(t) * tick
}

// Default timing values. One host tick is 50ms, so the default reconciliation
// interval of 5 ticks is 250ms.
const (
	DefaultTickDuration   = 50 * time.Millisecond
	DefaultUpdateInterval = Ticks(5)

	// DefaultDisplayRange is the distance (in world units) within which an
	// observer can see a display that doesn't configure its own range.
	DefaultDisplayRange = 48.0

	// DefaultLineHeight is the vertical space taken by one line.
	DefaultLineHeight = 0.3
)

// Location is a point in a named world.
type Location struct {
	World string  `json:"world" yaml:"world"`
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Z     float64 `json:"z" yaml:"z"`
}

// Add returns the location shifted by the offset.
func (l Location) Add(o Offset) Location {
	return Location{World: l.World, X: l.X + o.X, Y: l.Y + o.Y, Z: l.Z + o.Z}
}

// Distance returns the euclidean distance between two locations.
// Locations in different worlds are infinitely far apart.
func (l Location) Distance(other Location) float64 {
	if l.World != other.World {
		return math.Inf(1)
	}
	dx := l.X - other.X
	dy := l.Y - other.Y
	dz := l.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Offset is a position relative to a display's location.
type Offset struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Visibility is the state of one (display, observer) pair.
type Visibility int

const (
	Hidden Visibility = iota
	Visible
)

func (v Visibility) String() string {
	if v == Visible {
		return "visible"
	}
	return "hidden"
}

// Observer is the host's snapshot of a connected client.
//
// The core keeps no observer state of its own beyond the cooldown set and
// each display's visibility cache; Location and Permissions are refreshed by
// the host on every roster snapshot.
type Observer struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Location    Location  `json:"location"`
	Permissions []string  `json:"permissions,omitempty"`
}

// HasPermission reports whether the observer holds the named permission.
func (o Observer) HasPermission(perm string) bool {
	for _, p := range o.Permissions {
		if p == perm || p == "*" {
			return true
		}
	}
	return false
}
