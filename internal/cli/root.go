package cli

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/openfluvial/streamnet/pkg/buildinfo"
	"github.com/openfluvial/streamnet/pkg/pipeline"
	"github.com/openfluvial/streamnet/pkg/run"
)

var (
	verbose      bool
	workspaceDir string
)

// Execute builds the root command and runs it.
func Execute(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:   "streamnet",
		Short: "Build stream-network topology from rasters and register sites on it",
		Long: `Streamnet turns a stream raster and a flow-direction raster into a
topological network of reaches, then registers observation and prediction
sites on that network.

A typical session:

  streamnet workspace init
  streamnet build --streams streams.asc --flowdir flowdir.asc
  streamnet import observations.csv
  streamnet snap --locid-column station
  streamnet predict --dist 500
  streamnet export --out network.svg

All stage outputs live in the workspace and feed the next stage.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.WarnLevel
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(os.Stderr, level)
			cmd.SetContext(withLogger(cmd.Context(), logger))
		},
	}
	rootCmd.SetVersionTemplate(buildinfo.Template())
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", ".streamnet",
		"workspace directory")

	rootCmd.AddCommand(
		newBuildCmd(),
		newImportCmd(),
		newSnapCmd(),
		newPredictCmd(),
		newRestrictCmd(),
		newExportCmd(),
		newWorkspaceCmd(),
		newRunCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}

// openRunner opens the workspace named by the --workspace flag and wraps it
// in a pipeline runner using the command's context logger.
func openRunner(cmd *cobra.Command) (*pipeline.Runner, error) {
	ws, err := run.Open(workspaceDir)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ws, loggerFromContext(cmd.Context())), nil
}
