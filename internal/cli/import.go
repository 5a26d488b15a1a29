package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/openfluvial/streamnet/pkg/pipeline"
	"github.com/openfluvial/streamnet/pkg/sites"
)

func newImportCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <csv>",
		Short: "Load a CSV point set into the workspace",
		Long: `Import reads a CSV file with x and y coordinate columns and stores it as
a sites map. Any further columns travel along as attributes and can drive
location and sampling identifiers during snapping. An untouched copy is
kept under "<name>_o" so the raw coordinates survive snapping.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRunner(cmd)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				printError("cannot read %s: %v", args[0], err)
				return err
			}
			defer f.Close()

			tbl, err := sites.ReadCSV(f, name)
			if err != nil {
				printError("import failed: %v", err)
				return err
			}
			if err := r.ImportSites(cmd.Context(), name, tbl); err != nil {
				printError("import failed: %v", err)
				return err
			}

			printSuccess("Imported %d site(s) into map %q", tbl.Len(), name)
			printDetail("original preserved as %q", name+pipeline.OriginalSuffix)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", pipeline.DefaultSitesMap, "name of the sites map")
	return cmd
}
