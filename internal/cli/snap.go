package cli

import (
	"github.com/spf13/cobra"

	"github.com/openfluvial/streamnet/pkg/pipeline"
)

func newSnapCmd() *cobra.Command {
	var opts pipeline.Options
	var maxdist float64

	cmd := &cobra.Command{
		Use:   "snap",
		Short: "Register an imported point set on the network",
		Long: `Snap moves every site of a sites map onto its nearest reach and attaches
the reach's identifiers plus distance attributes (upstream distance, ratio).
Sites farther than --maxdist from any reach are dropped. The persisted map
is replaced with the snapped set; the "_o" copy made at import keeps the
raw coordinates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRunner(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("maxdist") {
				opts.MaxDist = &maxdist
			}

			result, err := r.SnapSites(cmd.Context(), opts)
			if err != nil {
				printError("snap failed: %v", err)
				return err
			}

			printSuccess("Snapped %d site(s) in map %q", result.Stats.SiteCount, opts.SitesMap)
			for _, w := range result.Warnings {
				printWarning("%s", w.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.EdgesMap, "edges-map", pipeline.DefaultEdgesMap, "name of the edges map")
	cmd.Flags().StringVar(&opts.SitesMap, "sites-map", pipeline.DefaultSitesMap, "name of the sites map")
	cmd.Flags().StringVar(&opts.LocIDColumn, "locid-column", "", "attribute column providing location ids")
	cmd.Flags().StringVar(&opts.PIDColumn, "pid-column", "", "attribute column providing sampling ids")
	cmd.Flags().Float64Var(&maxdist, "maxdist", 0, "drop sites at or beyond this snapping distance")

	return cmd
}
