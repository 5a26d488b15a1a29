package cli

import (
	"os"

	"github.com/spf13/cobra"

	snerrors "github.com/openfluvial/streamnet/pkg/errors"
	"github.com/openfluvial/streamnet/pkg/pipeline"
	"github.com/openfluvial/streamnet/pkg/run"
	"github.com/openfluvial/streamnet/pkg/sites"
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the configured pipeline from a project file",
		Long: `Run executes the full pipeline described by a TOML project file: build,
then import and snap when a sites file is configured, then predict when a
spacing or site count is configured, then restrict when enabled. The
workspace is initialized automatically when it does not exist yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := LoadProject(configPath)
			if err != nil {
				printError("%v", err)
				return err
			}
			if project.Workspace != "" && !cmd.Flags().Changed("workspace") {
				workspaceDir = project.Workspace
			}

			ws, err := run.Open(workspaceDir)
			if snerrors.Is(err, snerrors.ErrCodePrerequisite) {
				ws, err = run.Init(workspaceDir)
			}
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			r := pipeline.NewRunner(ws, loggerFromContext(ctx))
			opts := project.Pipeline

			result, err := r.BuildNetwork(ctx, opts)
			if err != nil {
				printError("build failed: %v", err)
				return err
			}
			printSuccess("Built %d reach(es) in %d network(s)",
				result.Stats.EdgeCount, result.Stats.NetworkCount)

			if project.SitesFile != "" {
				if err := importAndSnap(cmd, r, project, opts); err != nil {
					return err
				}
			}

			if opts.Dist > 0 || opts.NSites > 0 {
				result, err := r.GeneratePredictionSites(ctx, opts)
				if err != nil {
					printError("predict failed: %v", err)
					return err
				}
				printSuccess("Generated %d prediction site(s)", result.Stats.SiteCount)
				for _, w := range result.Warnings {
					printWarning("%s", w.Message)
				}
			}

			if project.Restrict {
				restrictOpts := opts
				restrictOpts.SiteMaps = []string{optsSitesMap(opts)}
				result, err := r.RestrictNetworks(ctx, restrictOpts)
				if err != nil {
					printError("restrict failed: %v", err)
					return err
				}
				printSuccess("Kept %d network(s) with %d reach(es)",
					result.Stats.NetworkCount, result.Stats.EdgeCount)
				for _, w := range result.Warnings {
					printWarning("%s", w.Message)
				}
			}

			printInfo("pipeline complete")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "streamnet.toml", "project file")
	return cmd
}

func importAndSnap(cmd *cobra.Command, r *pipeline.Runner, project *Project, opts pipeline.Options) error {
	ctx := cmd.Context()
	name := optsSitesMap(opts)

	f, err := os.Open(project.SitesFile)
	if err != nil {
		printError("cannot read %s: %v", project.SitesFile, err)
		return err
	}
	defer f.Close()

	tbl, err := sites.ReadCSV(f, name)
	if err != nil {
		printError("import failed: %v", err)
		return err
	}
	if err := r.ImportSites(ctx, name, tbl); err != nil {
		printError("import failed: %v", err)
		return err
	}

	result, err := r.SnapSites(ctx, opts)
	if err != nil {
		printError("snap failed: %v", err)
		return err
	}
	printSuccess("Snapped %d site(s)", result.Stats.SiteCount)
	for _, w := range result.Warnings {
		printWarning("%s", w.Message)
	}
	return nil
}

func optsSitesMap(opts pipeline.Options) string {
	if opts.SitesMap != "" {
		return opts.SitesMap
	}
	return pipeline.DefaultSitesMap
}
