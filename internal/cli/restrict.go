package cli

import (
	"github.com/spf13/cobra"

	"github.com/openfluvial/streamnet/pkg/pipeline"
)

func newRestrictCmd() *cobra.Command {
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "restrict",
		Short: "Prune the network to the networks touched by sites",
		Long: `Restrict keeps only the networks that carry registered sites from the
given site maps, adjusted by explicit --keep and --delete lists (keep
wins over delete). With --preserve-as the unfiltered edges map is saved
under that name before pruning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRunner(cmd)
			if err != nil {
				return err
			}

			result, err := r.RestrictNetworks(cmd.Context(), opts)
			if err != nil {
				printError("restrict failed: %v", err)
				return err
			}

			printSuccess("Kept %d network(s) with %d reach(es)",
				result.Stats.NetworkCount, result.Stats.EdgeCount)
			for _, w := range result.Warnings {
				printWarning("%s", w.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.EdgesMap, "edges-map", pipeline.DefaultEdgesMap, "name of the edges map")
	cmd.Flags().StringSliceVar(&opts.SiteMaps, "site-maps", nil, "site maps whose networks to keep")
	cmd.Flags().IntSliceVar(&opts.KeepNets, "keep", nil, "network ids to keep regardless of sites")
	cmd.Flags().IntSliceVar(&opts.DeleteNets, "delete", nil, "network ids to delete")
	cmd.Flags().StringVar(&opts.PreserveAs, "preserve-as", "", "save the unfiltered edges map under this name first")

	return cmd
}
