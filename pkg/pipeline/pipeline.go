// Package pipeline provides the stream-network preparation pipeline.
//
// This package implements the complete build → snap → predict → restrict
// sequence that the CLI drives. Centralizing it keeps behavior identical no
// matter which command or configuration file triggers a stage.
//
// # Architecture
//
// The pipeline consists of four stages over one workspace:
//
//  1. Build: extract the edge/node graph from the rasters, resolve complex
//     confluences, assign network and reach ids, accumulate upstream
//     distance, and persist the edges map.
//  2. Snap: register an imported point set on the network.
//  3. Predict: synthesize evenly spaced prediction sites and register them.
//  4. Restrict: prune the edges map to the networks touched by sites.
//
// Stages run strictly in order; each one loads what its predecessors
// persisted and fails with PREREQUISITE_MISSING when a required map is
// absent. Execution is single-threaded throughout: every stage rewrites its
// named outputs from scratch, and nothing here is safe for concurrent use
// against one workspace.
//
// # Usage
//
//	runner := pipeline.NewRunner(ws, logger)
//	opts := pipeline.Options{
//	    StreamsPath: "streams.asc",
//	    FlowDirPath: "flowdir.asc",
//	}
//	result, err := runner.BuildNetwork(ctx, opts)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/openfluvial/streamnet/pkg/errors"
	"github.com/openfluvial/streamnet/pkg/network"
	"github.com/openfluvial/streamnet/pkg/sites"
)

// Default map names, shared by CLI and configuration so every entry point
// agrees on where stage outputs live.
const (
	DefaultEdgesMap      = "edges"
	DefaultSitesMap      = "sites"
	DefaultPredictionMap = "preds"

	// OriginalSuffix names the untouched provenance copy of a point set.
	OriginalSuffix = "_o"
)

// Options contains all configuration for the pipeline stages. One struct
// serves every stage; each stage validates only the fields it consumes.
// This struct supports TOML/JSON serialization for project files.
type Options struct {
	// Build options
	StreamsPath      string  `json:"streams_path,omitempty"      toml:"streams_path"`
	FlowDirPath      string  `json:"flowdir_path,omitempty"      toml:"flowdir_path"`
	MinSegmentLength float64 `json:"min_segment_length,omitempty" toml:"min_segment_length"`
	Clean            bool    `json:"clean,omitempty"             toml:"clean"`
	EdgesMap         string  `json:"edges_map,omitempty"         toml:"edges_map"`

	// Snap options
	SitesMap    string   `json:"sites_map,omitempty"    toml:"sites_map"`
	LocIDColumn string   `json:"locid_column,omitempty" toml:"locid_column"`
	PIDColumn   string   `json:"pid_column,omitempty"   toml:"pid_column"`
	MaxDist     *float64 `json:"maxdist,omitempty"      toml:"maxdist"`

	// Predict options
	PredictionMap string  `json:"prediction_map,omitempty" toml:"prediction_map"`
	Dist          float64 `json:"dist,omitempty"           toml:"dist"`
	NSites        int     `json:"nsites,omitempty"         toml:"nsites"`
	NetIDs        []int   `json:"netids,omitempty"         toml:"netids"`

	// Restrict options
	SiteMaps   []string `json:"site_maps,omitempty"   toml:"site_maps"`
	KeepNets   []int    `json:"keep_nets,omitempty"   toml:"keep_nets"`
	DeleteNets []int    `json:"delete_nets,omitempty" toml:"delete_nets"`
	PreserveAs string   `json:"preserve_as,omitempty" toml:"preserve_as"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`
}

// Result contains the outputs of a pipeline stage.
type Result struct {
	// Graph is the edge graph the stage produced or operated on.
	Graph *network.Graph

	// Sites is the point set the stage produced, for snap and predict.
	Sites *sites.Table

	// Stats contains counts and timing.
	Stats Stats

	// Warnings are the non-fatal data-quality conditions raised. The stage
	// succeeded; callers report these and continue.
	Warnings []errors.Warning
}

// Stats contains stage execution statistics.
type Stats struct {
	EdgeCount     int
	NodeCount     int
	NetworkCount  int
	AuxEdgeCount  int
	ResolvePasses int
	SiteCount     int
	Duration      time.Duration
}

// ValidateForBuild checks required fields and applies defaults for the
// build stage.
func (o *Options) ValidateForBuild() error {
	if o.StreamsPath == "" || o.FlowDirPath == "" {
		return errors.New(errors.ErrCodeArgument,
			"build needs both a stream raster and a flow-direction raster")
	}
	if o.Clean && o.MinSegmentLength <= 0 {
		return errors.New(errors.ErrCodeArgument,
			"clean mode needs a positive min segment length")
	}
	o.setCommonDefaults()
	return nil
}

// ValidateForSnap checks required fields and applies defaults for the snap
// stage.
func (o *Options) ValidateForSnap() error {
	if o.MaxDist != nil && *o.MaxDist < 0 {
		return errors.New(errors.ErrCodeArgument, "maxdist must not be negative")
	}
	o.setCommonDefaults()
	return nil
}

// ValidateForPredict checks required fields and applies defaults for the
// predict stage. The dist/nsites exclusivity itself is enforced where the
// sites are generated.
func (o *Options) ValidateForPredict() error {
	if o.Dist < 0 {
		return errors.New(errors.ErrCodeArgument, "dist must not be negative")
	}
	if o.NSites < 0 {
		return errors.New(errors.ErrCodeArgument, "nsites must not be negative")
	}
	o.setCommonDefaults()
	return nil
}

// ValidateForRestrict checks required fields and applies defaults for the
// restrict stage.
func (o *Options) ValidateForRestrict() error {
	if len(o.KeepNets) == 0 && len(o.DeleteNets) == 0 && len(o.SiteMaps) == 0 {
		return errors.New(errors.ErrCodeArgument,
			"restrict needs site maps, a keep list, or a delete list")
	}
	o.setCommonDefaults()
	return nil
}

func (o *Options) setCommonDefaults() {
	if o.EdgesMap == "" {
		o.EdgesMap = DefaultEdgesMap
	}
	if o.SitesMap == "" {
		o.SitesMap = DefaultSitesMap
	}
	if o.PredictionMap == "" {
		o.PredictionMap = DefaultPredictionMap
	}
}
