package hologram

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Display is a positioned, multi-page object with per-observer visibility.
//
// The visibility cache is authoritative: an observer is Visible exactly when
// the last successful backend call for the pair was a show. Reconciliation
// reads the cache to avoid redundant show and hide calls.
//
// Thread Safety: all methods are safe for concurrent use. Backend calls for
// one display are serialised, and once Destroy returns no further show is
// issued for the display.
type Display struct {
	id      uuid.UUID
	name    string
	backend PresentationBackend

	// opMu serialises backend calls so a destroy can't interleave with a show.
	opMu sync.Mutex

	mu           sync.RWMutex // protects the fields below
	enabled      bool
	location     Location
	displayRange float64
	permission   string
	pages        []*Page
	visibility   map[uuid.UUID]Visibility
	observerPage map[uuid.UUID]int
	destroyed    bool
}

// newDisplay creates an enabled display with no pages.
func newDisplay(name string, loc Location, backend PresentationBackend) *Display {
	return &Display{
		id:           uuid.New(),
		name:         name,
		backend:      backend,
		enabled:      true,
		location:     loc,
		displayRange: DefaultDisplayRange,
		visibility:   make(map[uuid.UUID]Visibility),
		observerPage: make(map[uuid.UUID]int),
	}
}

// ID returns the display's unique id.
func (d *Display) ID() uuid.UUID { return d.id }

// Name returns the registry name; it is empty for temporary displays.
func (d *Display) Name() string { return d.name }

// IsTemporary reports whether the display is an unregistered ephemeral line.
func (d *Display) IsTemporary() bool { return d.name == "" }

// label names the display in logs and errors.
func (d *Display) label() string {
	if d.name == "" {
		return "temporary:" + d.id.String()
	}
	return d.name
}

func (d *Display) IsEnabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled toggles the display. Visibility follows on the next tick.
func (d *Display) SetEnabled(enabled bool) {
	d.mu.Lock()
	d.enabled = enabled
	d.mu.Unlock()
}

func (d *Display) Location() Location {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.location
}

func (d *Display) DisplayRange() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.displayRange
}

func (d *Display) Permission() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.permission
}

func (d *Display) PageCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.pages)
}

// IsVisible reports whether the display is currently shown to the observer.
func (d *Display) IsVisible(observerID uuid.UUID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.visibility[observerID] == Visible
}

// ObserverPage returns the page the observer is looking at (0 by default).
func (d *Display) ObserverPage(observerID uuid.UUID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.observerPage[observerID]
}

// VisibleTo returns the ids of every observer the display is shown to,
// sorted for stable output.
func (d *Display) VisibleTo() []uuid.UUID {
	d.mu.RLock()
	ids := make([]uuid.UUID, 0, len(d.visibility))
	for id, v := range d.visibility {
		if v == Visible {
			ids = append(ids, id)
		}
	}
	d.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// IsDestroyed reports whether Destroy has been called.
func (d *Display) IsDestroyed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.destroyed
}

// View returns the rendering view of a page. Out-of-range pages are clamped.
func (d *Display) View(page int) View {
	d.mu.RLock()
	defer d.mu.RUnlock()

	page = clampPage(page, len(d.pages))
	v := View{
		DisplayID: d.id.String(),
		Name:      d.name,
		Page:      page,
		Pages:     len(d.pages),
		Location:  d.location,
	}
	if len(d.pages) == 0 {
		return v
	}
	lines := d.pages[page].Lines
	v.Lines = make([]LineView, len(lines))
	for i, l := range lines {
		v.Lines[i] = LineView{
			EntityID: l.EntityID,
			Content:  l.Content,
			Offset:   l.Offset,
			Location: d.location.Add(l.Offset),
		}
	}
	return v
}

// Show renders the page for the observer and marks the pair Visible.
// Showing a destroyed display is a no-op.
func (d *Display) Show(o Observer, page int) error {
	_, err := d.show(o, page)
	return err
}

// show reports whether the backend was asked to render, which is false
// once the display is destroyed.
func (d *Display) show(o Observer, page int) (bool, error) {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	if d.IsDestroyed() {
		return false, nil
	}
	page = clampPage(page, d.PageCount())

	if err := guard(func() error { return d.backend.Show(d, o, page) }); err != nil {
		return false, &TransitionError{Display: d.label(), Observer: o.ID, Op: "show", Err: err}
	}

	d.mu.Lock()
	d.visibility[o.ID] = Visible
	d.observerPage[o.ID] = page
	d.mu.Unlock()
	return true, nil
}

// Hide removes the display from the observer's view and marks the pair Hidden.
// The observer's page is remembered for the next show.
func (d *Display) Hide(o Observer) error {
	_, err := d.hide(o)
	return err
}

func (d *Display) hide(o Observer) (bool, error) {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	if d.IsDestroyed() {
		return false, nil
	}

	if err := guard(func() error { return d.backend.Hide(d, o) }); err != nil {
		return false, &TransitionError{Display: d.label(), Observer: o.ID, Op: "hide", Err: err}
	}

	d.mu.Lock()
	delete(d.visibility, o.ID)
	d.mu.Unlock()
	return true, nil
}

// HideAll removes the display from every observer's view.
func (d *Display) HideAll() error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	if d.IsDestroyed() {
		return nil
	}
	return d.hideAllLocked()
}

func (d *Display) hideAllLocked() error {
	err := guard(func() error { return d.backend.HideAll(d) })

	// The cache is cleared even on failure so reconciliation re-evaluates
	// every pair instead of trusting a state the backend may have lost.
	d.mu.Lock()
	clear(d.visibility)
	d.mu.Unlock()

	if err != nil {
		return &TransitionError{Display: d.label(), Op: "hide_all", Err: err}
	}
	return nil
}

// Destroy hides the display everywhere and releases its per-observer state.
// It is idempotent; a destroyed display never shows again.
func (d *Display) Destroy() error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	if d.IsDestroyed() {
		return nil
	}
	err := d.hideAllLocked()

	d.mu.Lock()
	d.destroyed = true
	clear(d.observerPage)
	d.mu.Unlock()
	return err
}

// RealignLines stacks every page's lines downwards from the display
// location, each line taking its own height.
func (d *Display) RealignLines() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range d.pages {
		y := 0.0
		for _, l := range p.Lines {
			l.Offset.Y = -y
			y += l.Height
		}
	}
}

// setObserverPage records the page an observer is looking at.
func (d *Display) setObserverPage(observerID uuid.UUID, page int) {
	d.mu.Lock()
	d.observerPage[observerID] = clampPage(page, len(d.pages))
	d.mu.Unlock()
}

// forget drops every cached entry for an observer without calling the backend.
func (d *Display) forget(observerID uuid.UUID) {
	d.mu.Lock()
	delete(d.visibility, observerID)
	delete(d.observerPage, observerID)
	d.mu.Unlock()
}

// claim reports whether the interaction targets a line on the page the
// observer currently sees and that page reacts to the click kind. It
// returns a copy of the page's actions for the kind.
func (d *Display) claim(o Observer, targetID int32, kind ClickType) ([]Action, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.destroyed || len(d.pages) == 0 || d.visibility[o.ID] != Visible {
		return nil, false
	}
	page := d.pages[clampPage(d.observerPage[o.ID], len(d.pages))]
	if len(page.Actions[kind]) == 0 || !page.hasEntity(targetID) {
		return nil, false
	}
	return append([]Action(nil), page.Actions[kind]...), true
}

func clampPage(page, pages int) int {
	if page < 0 || pages == 0 {
		return 0
	}
	if page >= pages {
		return pages - 1
	}
	return page
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn()
}
