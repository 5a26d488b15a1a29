package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/openfluvial/streamnet/pkg/pipeline"
)

// Project is the on-disk configuration for the run command. It drives an
// entire pipeline from one TOML file:
//
//	workspace = ".streamnet"
//	sites_file = "observations.csv"
//	restrict = true
//
//	[pipeline]
//	streams_path = "streams.asc"
//	flowdir_path = "flowdir.asc"
//	locid_column = "station"
//	dist = 500.0
type Project struct {
	// Workspace overrides the --workspace flag when set.
	Workspace string `toml:"workspace"`

	// SitesFile is a CSV point set to import and snap. When empty the
	// snap stage is skipped.
	SitesFile string `toml:"sites_file"`

	// Restrict enables pruning to the networks touched by the snapped
	// sites after the other stages complete.
	Restrict bool `toml:"restrict"`

	// Pipeline holds the per-stage options.
	Pipeline pipeline.Options `toml:"pipeline"`
}

// LoadProject reads and validates a project file.
func LoadProject(path string) (*Project, error) {
	var p Project
	meta, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load project %s: unknown key %q", path, undecoded[0].String())
	}
	return &p, nil
}
