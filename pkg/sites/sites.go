// Package sites registers point observations on a stream network: snapping
// points onto the nearest reach, deriving their identifiers and
// relative-position attributes, and synthesizing evenly spaced prediction
// points along reaches.
package sites

import (
	"slices"

	"github.com/openfluvial/streamnet/pkg/geom"
)

// Site is one registered point. A fresh set of sites is produced on every
// snapping run from the immutable source points; sites reference their
// owning reach by id only.
type Site struct {
	// FID is the source feature id, assigned sequentially at import and
	// unique within the table.
	FID int `json:"fid"`
	// PID distinguishes a repeated-measurement record; LocID distinguishes
	// a physical location. Both default to dense sequential ids when no
	// user column drives them.
	PID   int `json:"pid"`
	LocID int `json:"locid"`
	// Cat, RID, and NetID identify the owning reach after snapping.
	Cat   int `json:"cat"`
	RID   int `json:"rid"`
	NetID int `json:"netid"`
	// Pos is the current position: snapped onto the reach once the site is
	// registered. Orig retains the pre-snap position for provenance.
	Orig geom.Point `json:"orig"`
	Pos  geom.Point `json:"pos"`
	// Dist is how far the point moved when snapped.
	Dist float64 `json:"dist"`
	// DistAlong is the arc distance from the reach's upstream end to Pos.
	DistAlong float64 `json:"distalong"`
	// UpDist and Ratio are the position attributes the downstream model
	// consumes.
	UpDist float64 `json:"updist"`
	Ratio  float64 `json:"ratio"`
	// Attrs carries the original attribute columns unchanged.
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Table is a named, ordered point set. Order is the import order and is
// preserved through snapping (dropped sites excepted).
type Table struct {
	Name  string  `json:"name"`
	Sites []*Site `json:"sites"`
}

// NewTable creates an empty named table.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// Add appends a point with the next sequential feature id.
func (t *Table) Add(pos geom.Point, attrs map[string]string) *Site {
	s := &Site{FID: len(t.Sites) + 1, Orig: pos, Pos: pos, Attrs: attrs}
	t.Sites = append(t.Sites, s)
	return s
}

// Len returns the number of sites.
func (t *Table) Len() int { return len(t.Sites) }

// NetIDs returns the distinct network ids touched by the table's sites,
// sorted ascending. Zero ids (never snapped) are skipped.
func (t *Table) NetIDs() []int {
	seen := make(map[int]bool)
	for _, s := range t.Sites {
		if s.NetID != 0 {
			seen[s.NetID] = true
		}
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Sites: make([]*Site, len(t.Sites))}
	for i, s := range t.Sites {
		cp := *s
		if s.Attrs != nil {
			cp.Attrs = make(map[string]string, len(s.Attrs))
			for k, v := range s.Attrs {
				cp.Attrs[k] = v
			}
		}
		out.Sites[i] = &cp
	}
	return out
}
