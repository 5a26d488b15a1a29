package cli

import (
	"github.com/spf13/cobra"

	"github.com/openfluvial/streamnet/pkg/pipeline"
)

func newBuildCmd() *cobra.Command {
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Extract the stream network from rasters",
		Long: `Build reads the stream raster and the flow-direction raster, extracts
the edge/node graph, resolves complex confluences into binary merges,
assigns network and reach identifiers, accumulates upstream distances,
and persists the edges map in the workspace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRunner(cmd)
			if err != nil {
				return err
			}
			p := newProgress(loggerFromContext(cmd.Context()))
			sp := startSpinner(cmd.Context(), "building network")

			result, err := r.BuildNetwork(cmd.Context(), opts)
			sp.stop()
			if err != nil {
				printError("build failed: %v", err)
				return err
			}
			p.done("build complete")

			printSuccess("Built %d reach(es) in %d network(s)",
				result.Stats.EdgeCount, result.Stats.NetworkCount)
			if result.Stats.ResolvePasses > 0 {
				printDetail("resolved complex confluences in %d pass(es), %d auxiliary edge(s)",
					result.Stats.ResolvePasses, result.Stats.AuxEdgeCount)
			}
			printDetail("map %q, %d node(s), %s",
				opts.EdgesMap, result.Stats.NodeCount, result.Stats.Duration)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.StreamsPath, "streams", "", "stream raster (ESRI ASCII grid)")
	cmd.Flags().StringVar(&opts.FlowDirPath, "flowdir", "", "flow-direction raster (ESRI ASCII grid)")
	cmd.Flags().Float64Var(&opts.MinSegmentLength, "min-length", 0, "minimum headwater segment length")
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "merge short headwater segments into their receivers")
	cmd.Flags().StringVar(&opts.EdgesMap, "edges-map", pipeline.DefaultEdgesMap, "name of the edges map")
	_ = cmd.MarkFlagRequired("streams")
	_ = cmd.MarkFlagRequired("flowdir")

	return cmd
}
