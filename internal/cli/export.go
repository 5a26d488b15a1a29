package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openfluvial/streamnet/pkg/export"
	"github.com/openfluvial/streamnet/pkg/pipeline"
	"github.com/openfluvial/streamnet/pkg/run"
)

func newExportCmd() *cobra.Command {
	var (
		mapName  string
		out      string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the network topology as Graphviz DOT or SVG",
		Long: `Export renders the edges map as a node-link diagram. The output format
follows the file extension of --out: ".svg" renders through Graphviz,
anything else writes plain DOT text. Auxiliary zero-length edges from
confluence resolution are drawn dashed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := run.Open(workspaceDir)
			if err != nil {
				return err
			}
			g, err := ws.LoadGraph(cmd.Context(), mapName)
			if err != nil {
				printError("export failed: %v", err)
				return err
			}

			dot := export.ToDOT(g, export.Options{Detailed: detailed})
			data := []byte(dot)
			if strings.EqualFold(filepath.Ext(out), ".svg") {
				sp := startSpinner(cmd.Context(), "rendering svg")
				data, err = export.RenderSVG(dot)
				sp.stop()
				if err != nil {
					printError("render failed: %v", err)
					return err
				}
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			printSuccess("Exported map %q", mapName)
			printFile(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&mapName, "map", pipeline.DefaultEdgesMap, "name of the edges map")
	cmd.Flags().StringVarP(&out, "out", "o", "network.dot", "output file (.dot or .svg)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include lengths and upstream distances in labels")

	return cmd
}
