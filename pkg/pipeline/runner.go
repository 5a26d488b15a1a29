package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/openfluvial/streamnet/pkg/errors"
	"github.com/openfluvial/streamnet/pkg/network"
	"github.com/openfluvial/streamnet/pkg/observability"
	"github.com/openfluvial/streamnet/pkg/raster"
	"github.com/openfluvial/streamnet/pkg/run"
	"github.com/openfluvial/streamnet/pkg/sites"
)

// Runner executes pipeline stages against one workspace.
//
// The Runner holds no stage state beyond the workspace and logger; every
// stage loads its inputs from the workspace and persists its outputs back.
// A failed stage leaves previously persisted maps untouched.
type Runner struct {
	Workspace *run.Workspace
	Logger    *log.Logger
}

// NewRunner creates a runner over the given workspace.
// If logger is nil, the default logger is used.
func NewRunner(ws *run.Workspace, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Workspace: ws, Logger: logger}
}

// BuildNetwork runs the full graph-construction stage: raster extraction,
// confluence resolution iterated to convergence, identifier assignment,
// upstream-distance accumulation, and persistence of the edges map.
func (r *Runner) BuildNetwork(ctx context.Context, opts Options) (result *Result, err error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, err
	}
	logger := r.stageLogger(opts)
	defer r.stage(ctx, "build", &err)()

	streams, err := raster.ReadASCIIGrid(opts.StreamsPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExtraction, err, "load stream raster")
	}
	flowdir, err := raster.ReadASCIIGrid(opts.FlowDirPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExtraction, err, "load flow-direction raster")
	}

	start := time.Now()
	g, err := network.Extract(streams, flowdir, network.ExtractOptions{
		MinSegmentLength: opts.MinSegmentLength,
		Clean:            opts.Clean,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("extracted stream graph",
		"edges", g.EdgeCount(),
		"nodes", g.NodeCount())

	passes := 0
	for network.HasComplexConfluences(g) {
		resolved, _, rerr := network.ResolveConfluences(g)
		if rerr != nil {
			return nil, rerr
		}
		g = resolved
		passes++
	}
	aux := 0
	for _, e := range g.Edges() {
		if e.Aux {
			aux++
		}
	}
	if passes > 0 {
		logger.Info("resolved complex confluences",
			"passes", passes,
			"auxiliary_edges", aux)
	}

	if err := network.AssignIdentifiers(g); err != nil {
		return nil, err
	}
	if err := network.AccumulateUpstreamDistance(g); err != nil {
		return nil, err
	}

	if err := r.Workspace.SaveGraph(ctx, opts.EdgesMap, g); err != nil {
		return nil, err
	}

	result = &Result{
		Graph: g,
		Stats: Stats{
			EdgeCount:     g.EdgeCount(),
			NodeCount:     g.NodeCount(),
			NetworkCount:  len(g.NetIDs()),
			AuxEdgeCount:  aux,
			ResolvePasses: passes,
			Duration:      time.Since(start),
		},
	}
	logger.Info("built network",
		"map", opts.EdgesMap,
		"networks", result.Stats.NetworkCount,
		"duration", result.Stats.Duration)
	return result, nil
}

// ImportSites reads a CSV point set into the named sites map, retaining the
// untouched original under the <name>_o provenance copy.
func (r *Runner) ImportSites(ctx context.Context, name string, tbl *sites.Table) (err error) {
	defer r.stage(ctx, "import", &err)()

	if err := r.Workspace.SaveSites(ctx, name, tbl); err != nil {
		return err
	}
	if err := r.Workspace.Copy(ctx, name, name+OriginalSuffix); err != nil {
		return err
	}
	r.Logger.Info("imported point set", "map", name, "sites", tbl.Len())
	return nil
}

// SnapSites registers the named point set on the network: every point is
// moved to its nearest reach and gains identifiers and position attributes.
// The persisted map is replaced with the snapped set; the <name>_o copy made
// at import keeps the raw coordinates.
func (r *Runner) SnapSites(ctx context.Context, opts Options) (result *Result, err error) {
	if err := opts.ValidateForSnap(); err != nil {
		return nil, err
	}
	logger := r.stageLogger(opts)
	defer r.stage(ctx, "snap", &err)()

	g, err := r.Workspace.LoadGraph(ctx, opts.EdgesMap)
	if err != nil {
		return nil, err
	}
	tbl, err := r.Workspace.LoadSites(ctx, opts.SitesMap)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	warnings, err := sites.Snap(g, tbl, sites.SnapOptions{
		LocIDColumn: opts.LocIDColumn,
		PIDColumn:   opts.PIDColumn,
		MaxDist:     opts.MaxDist,
	})
	if err != nil {
		return nil, err
	}
	r.report(ctx, "snap", logger, warnings)

	if err := r.Workspace.SaveSites(ctx, opts.SitesMap, tbl); err != nil {
		return nil, err
	}

	result = &Result{
		Sites:    tbl,
		Warnings: warnings,
		Stats: Stats{
			SiteCount: tbl.Len(),
			Duration:  time.Since(start),
		},
	}
	logger.Info("snapped sites",
		"map", opts.SitesMap,
		"sites", tbl.Len(),
		"duration", result.Stats.Duration)
	return result, nil
}

// GeneratePredictionSites synthesizes evenly spaced prediction points along
// the network and persists them under the prediction map name.
func (r *Runner) GeneratePredictionSites(ctx context.Context, opts Options) (result *Result, err error) {
	if err := opts.ValidateForPredict(); err != nil {
		return nil, err
	}
	logger := r.stageLogger(opts)
	defer r.stage(ctx, "predict", &err)()

	g, err := r.Workspace.LoadGraph(ctx, opts.EdgesMap)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tbl, warnings, err := sites.GeneratePredictions(g, sites.PredictOptions{
		Name:   opts.PredictionMap,
		Dist:   opts.Dist,
		NSites: opts.NSites,
		NetIDs: opts.NetIDs,
	})
	if err != nil {
		return nil, err
	}
	r.report(ctx, "predict", logger, warnings)

	if err := r.Workspace.SaveSites(ctx, opts.PredictionMap, tbl); err != nil {
		return nil, err
	}

	result = &Result{
		Sites:    tbl,
		Warnings: warnings,
		Stats: Stats{
			SiteCount: tbl.Len(),
			Duration:  time.Since(start),
		},
	}
	logger.Info("generated prediction sites",
		"map", opts.PredictionMap,
		"sites", tbl.Len(),
		"duration", result.Stats.Duration)
	return result, nil
}

// RestrictNetworks prunes the edges map to the networks touched by the
// given site maps, adjusted by explicit keep/delete lists (keep wins). When
// PreserveAs is set the unfiltered graph is saved under that name first.
// An empty result is persisted and reported as a warning, not an error.
func (r *Runner) RestrictNetworks(ctx context.Context, opts Options) (result *Result, err error) {
	if err := opts.ValidateForRestrict(); err != nil {
		return nil, err
	}
	logger := r.stageLogger(opts)
	defer r.stage(ctx, "restrict", &err)()

	g, err := r.Workspace.LoadGraph(ctx, opts.EdgesMap)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var touched []int
	seen := make(map[int]bool)
	for _, name := range opts.SiteMaps {
		tbl, lerr := r.Workspace.LoadSites(ctx, name)
		if lerr != nil {
			return nil, lerr
		}
		for _, id := range tbl.NetIDs() {
			if !seen[id] {
				seen[id] = true
				touched = append(touched, id)
			}
		}
	}

	keep := network.KeepSet(touched, opts.KeepNets, opts.DeleteNets)

	if opts.PreserveAs != "" {
		if err := r.Workspace.Copy(ctx, opts.EdgesMap, opts.PreserveAs); err != nil {
			return nil, err
		}
	}

	filtered := network.Filter(g, keep)
	var warnings []errors.Warning
	if filtered.EdgeCount() == 0 {
		warnings = append(warnings, errors.Warningf(errors.WarnEmptyNetwork,
			"restriction removed every network from %q", opts.EdgesMap))
	}
	r.report(ctx, "restrict", logger, warnings)

	if err := r.Workspace.SaveGraph(ctx, opts.EdgesMap, filtered); err != nil {
		return nil, err
	}

	result = &Result{
		Graph:    filtered,
		Warnings: warnings,
		Stats: Stats{
			EdgeCount:    filtered.EdgeCount(),
			NodeCount:    filtered.NodeCount(),
			NetworkCount: len(filtered.NetIDs()),
			Duration:     time.Since(start),
		},
	}
	logger.Info("restricted networks",
		"map", opts.EdgesMap,
		"kept_networks", result.Stats.NetworkCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.Duration)
	return result, nil
}

// stage emits the start/complete observability events around a stage body.
func (r *Runner) stage(ctx context.Context, name string, errp *error) func() {
	observability.Pipeline().OnStageStart(ctx, name)
	start := time.Now()
	return func() {
		observability.Pipeline().OnStageComplete(ctx, name, time.Since(start), *errp)
	}
}

// report logs warnings and forwards them to the observability hooks.
func (r *Runner) report(ctx context.Context, stage string, logger *log.Logger, warnings []errors.Warning) {
	for _, w := range warnings {
		logger.Warn(w.Message, "code", string(w.Code))
		observability.Pipeline().OnWarning(ctx, stage, string(w.Code), w.Message)
	}
}

func (r *Runner) stageLogger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
