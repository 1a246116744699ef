package hologram

import (
	"fmt"
	"regexp"
	"sort"
)

// namePattern restricts display names to what stores can use as a file name
// or primary key.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Definition is the persisted form of a display, as produced by a
// DefinitionStore.
type Definition struct {
	Name string `json:"name" yaml:"name"`

	// Enabled defaults to true when omitted.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	Location Location `json:"location" yaml:"location"`

	// DisplayRange of zero means the manager's default range.
	DisplayRange float64 `json:"display_range,omitempty" yaml:"display_range,omitempty"`

	// Permission an observer must hold to see the display; empty means everyone.
	Permission string `json:"permission,omitempty" yaml:"permission,omitempty"`

	Pages []PageDefinition `json:"pages" yaml:"pages"`
}

// PageDefinition is one page of a Definition.
type PageDefinition struct {
	Lines []LineDefinition `json:"lines" yaml:"lines"`

	// Actions maps a click type to action strings ("NEXT_PAGE", "MESSAGE:hi").
	Actions map[string][]string `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// LineDefinition is one line of a PageDefinition.
type LineDefinition struct {
	Content string `json:"content" yaml:"content"`

	// Height of zero means DefaultLineHeight.
	Height float64 `json:"height,omitempty" yaml:"height,omitempty"`

	OffsetX float64 `json:"offset_x,omitempty" yaml:"offset_x,omitempty"`
	OffsetZ float64 `json:"offset_z,omitempty" yaml:"offset_z,omitempty"`
}

// IsEnabled reports the effective enabled flag.
func (def Definition) IsEnabled() bool {
	return def.Enabled == nil || *def.Enabled
}

// Validate checks the definition can be turned into a display.
func (def Definition) Validate() error {
	if !namePattern.MatchString(def.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, def.Name)
	}
	if def.DisplayRange < 0 {
		return fmt.Errorf("%w: display_range must not be negative", ErrInvalidDefinition)
	}
	if len(def.Pages) == 0 {
		return fmt.Errorf("%w: display %q", ErrNoPages, def.Name)
	}

	for i, p := range def.Pages {
		if len(p.Lines) == 0 {
			return fmt.Errorf("%w: page %d of %q has no lines", ErrNoPages, i+1, def.Name)
		}
		for j, l := range p.Lines {
			if l.Height < 0 {
				return fmt.Errorf("%w: page %d line %d: height must not be negative", ErrInvalidDefinition, i+1, j+1)
			}
		}
		if _, err := parseActions(p.Actions); err != nil {
			return fmt.Errorf("%w: page %d of %q: %w", ErrInvalidDefinition, i+1, def.Name, err)
		}
	}
	return nil
}

func parseActions(raw map[string][]string) (map[ClickType][]Action, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[ClickType][]Action, len(raw))
	for kind, list := range raw {
		ct, err := ParseClickType(kind)
		if err != nil {
			return nil, err
		}
		for _, s := range list {
			a, err := ParseAction(s)
			if err != nil {
				return nil, err
			}
			out[ct] = append(out[ct], a)
		}
	}
	return out, nil
}

// buildDisplay validates def and constructs a display with aligned lines.
// The display is not registered and not shown.
func buildDisplay(def Definition, backend PresentationBackend, defaultRange float64) (*Display, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	d := newDisplay(def.Name, def.Location, backend)
	d.enabled = def.IsEnabled()
	d.permission = def.Permission
	d.displayRange = defaultRange
	if def.DisplayRange > 0 {
		d.displayRange = def.DisplayRange
	}

	d.pages = make([]*Page, len(def.Pages))
	for i, pd := range def.Pages {
		actions, _ := parseActions(pd.Actions) //nolint:errcheck // checked by Validate
		page := &Page{Lines: make([]*Line, len(pd.Lines)), Actions: actions}
		for j, ld := range pd.Lines {
			l := NewLine(ld.Content)
			if ld.Height > 0 {
				l.Height = ld.Height
			}
			l.Offset.X = ld.OffsetX
			l.Offset.Z = ld.OffsetZ
			page.Lines[j] = l
		}
		d.pages[i] = page
	}

	d.RealignLines()
	return d, nil
}

// DefinitionOf renders a display back into its persisted form.
func DefinitionOf(d *Display) Definition {
	d.mu.RLock()
	defer d.mu.RUnlock()

	enabled := d.enabled
	def := Definition{
		Name:         d.name,
		Enabled:      &enabled,
		Location:     d.location,
		DisplayRange: d.displayRange,
		Permission:   d.permission,
		Pages:        make([]PageDefinition, len(d.pages)),
	}

	for i, p := range d.pages {
		pd := PageDefinition{Lines: make([]LineDefinition, len(p.Lines))}
		for j, l := range p.Lines {
			pd.Lines[j] = LineDefinition{
				Content: l.Content,
				Height:  l.Height,
				OffsetX: l.Offset.X,
				OffsetZ: l.Offset.Z,
			}
		}
		if len(p.Actions) > 0 {
			pd.Actions = make(map[string][]string, len(p.Actions))
			kinds := make([]string, 0, len(p.Actions))
			for kind := range p.Actions {
				kinds = append(kinds, string(kind))
			}
			sort.Strings(kinds)
			for _, kind := range kinds {
				for _, a := range p.Actions[ClickType(kind)] {
					pd.Actions[kind] = append(pd.Actions[kind], a.String())
				}
			}
		}
		def.Pages[i] = pd
	}
	return def
}
