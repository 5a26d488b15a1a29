package sites

import (
	"github.com/openfluvial/streamnet/pkg/errors"
	"github.com/openfluvial/streamnet/pkg/geom"
	"github.com/openfluvial/streamnet/pkg/network"
)

// SnapOptions configures one snapping run.
type SnapOptions struct {
	// LocIDColumn, when set, names the attribute column whose distinct
	// values drive locID assignment. PIDColumn does the same for pid.
	// Referencing a column absent from the table is an INVALID_ARGUMENT
	// error.
	LocIDColumn string
	PIDColumn   string
	// MaxDist, when non-nil, drops sites that moved at least this far when
	// snapped. Exact on-network hits (zero move) always survive.
	MaxDist *float64
}

// Snap registers every site in the table on its nearest reach, in place:
// positions are replaced by their projections, over-distance sites are
// dropped, identifiers are assigned, and the owning reach's attributes are
// joined in. Returns the data-quality warnings raised along the way.
//
// The steps run in a fixed order: project and move, drop by MaxDist, assign
// locID then pid, join netID/rid from the owning reach, then derive
// distalong, upDist, and ratio. Dropping therefore happens before dense id
// assignment, so surviving sites always carry a gapless id range when no id
// columns are given.
func Snap(g *network.Graph, tbl *Table, opts SnapOptions) ([]errors.Warning, error) {
	if g == nil || g.EdgeCount() == 0 {
		return nil, errors.New(errors.ErrCodePrerequisite,
			"no edge graph to snap against; build the network first")
	}
	if tbl == nil {
		return nil, errors.New(errors.ErrCodePrerequisite, "no point set to snap")
	}
	if err := checkColumns(tbl, opts); err != nil {
		return nil, err
	}
	var warnings []errors.Warning

	// 1+2: project each point onto the nearest reach and move it there.
	for _, s := range tbl.Sites {
		cat, proj := nearestEdge(g, s.Pos)
		s.Cat = cat
		s.Dist = proj.Dist
		s.DistAlong = proj.Along
		s.Pos = proj.Point
	}

	// 3: drop sites that moved too far.
	if opts.MaxDist != nil {
		if dropped := dropByDistance(tbl, *opts.MaxDist); dropped > 0 {
			warnings = append(warnings, errors.Warningf(errors.WarnSitesDropped,
				"dropped %d site(s) snapped %g or farther from the network", dropped, *opts.MaxDist))
		}
	}

	// 4+5: assign locID, then pid.
	assignLocIDs(tbl, opts.LocIDColumn)
	assignPIDs(tbl, opts.PIDColumn)

	// 6-9: join reach attributes and derive position attributes.
	for _, s := range tbl.Sites {
		e, ok := g.Edge(s.Cat)
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal,
				"site %d references unknown reach %d", s.FID, s.Cat)
		}
		registerOnEdge(s, e)
	}
	return warnings, nil
}

// registerOnEdge fills the reach-derived attributes of a site whose Cat and
// DistAlong are already set. Shared by Snap and the prediction generator,
// whose points are on the reach by construction.
func registerOnEdge(s *Site, e *network.Edge) {
	s.RID = e.RID
	s.NetID = e.NetID
	s.UpDist = geom.Round2(e.UpDist - s.DistAlong)
	if e.Length > 0 {
		s.Ratio = 1 - s.DistAlong/e.Length
	} else {
		s.Ratio = 0
	}
}

// nearestEdge returns the reach nearest to p and the projection onto it.
// Edges are scanned in ascending raw id order and ties keep the first hit,
// so results are deterministic.
func nearestEdge(g *network.Graph, p geom.Point) (int, geom.Projection) {
	var (
		bestCat  int
		bestProj geom.Projection
		found    bool
	)
	for _, e := range g.Edges() {
		proj := e.Geom.Project(p)
		if !found || proj.Dist < bestProj.Dist {
			bestCat, bestProj, found = e.Cat, proj, true
		}
	}
	return bestCat, bestProj
}

// dropByDistance removes sites that moved at least maxdist, returning the
// count removed. A zero move never drops, so maxdist 0 keeps exactly the
// sites already on the network. Survivors are renumbered so FIDs, and the
// default locID/pid derived from them, stay a dense sequential range.
func dropByDistance(tbl *Table, maxdist float64) int {
	kept := tbl.Sites[:0]
	dropped := 0
	for _, s := range tbl.Sites {
		if s.Dist > 0 && s.Dist >= maxdist {
			dropped++
			continue
		}
		kept = append(kept, s)
	}
	tbl.Sites = kept
	for i, s := range tbl.Sites {
		s.FID = i + 1
	}
	return dropped
}

func checkColumns(tbl *Table, opts SnapOptions) error {
	for _, col := range []string{opts.LocIDColumn, opts.PIDColumn} {
		if col == "" {
			continue
		}
		present := false
		for _, s := range tbl.Sites {
			if _, ok := s.Attrs[col]; ok {
				present = true
				break
			}
		}
		if !present && len(tbl.Sites) > 0 {
			return errors.New(errors.ErrCodeArgument,
				"id column %q not present in point set %q", col, tbl.Name)
		}
	}
	return nil
}

func assignLocIDs(tbl *Table, column string) {
	if column == "" {
		for _, s := range tbl.Sites {
			s.LocID = s.FID
		}
		return
	}
	enc := NewEncoder()
	for _, s := range tbl.Sites {
		s.LocID = enc.Encode(s.Attrs[column])
	}
}

func assignPIDs(tbl *Table, column string) {
	if column == "" {
		for _, s := range tbl.Sites {
			s.PID = s.LocID
		}
		return
	}
	enc := NewEncoder()
	for _, s := range tbl.Sites {
		s.PID = enc.Encode(s.Attrs[column])
	}
}
