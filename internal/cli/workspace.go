package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfluvial/streamnet/pkg/run"
)

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage the workspace",
		Long: `The workspace holds every persisted map (edge graphs and site tables)
as JSON files alongside a registry. All pipeline commands read from and
write to the workspace named by --workspace.`,
	}

	cmd.AddCommand(
		newWorkspaceInitCmd(),
		newWorkspacePathCmd(),
		newWorkspaceListCmd(),
		newWorkspaceCleanCmd(),
	)
	return cmd
}

func newWorkspaceInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := run.Init(workspaceDir)
			if err != nil {
				printError("init failed: %v", err)
				return err
			}
			printSuccess("Initialized workspace %s", ws.ID())
			printFile(ws.Path())
			return nil
		},
	}
}

func newWorkspacePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the workspace directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := run.Open(workspaceDir)
			if err != nil {
				return err
			}
			fmt.Println(ws.Path())
			return nil
		},
	}
}

func newWorkspaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := run.Open(workspaceDir)
			if err != nil {
				return err
			}
			maps := ws.List()
			if len(maps) == 0 {
				printInfo("workspace is empty")
				return nil
			}
			printKeyValue("workspace", ws.ID())
			for _, name := range maps {
				printDetail("%s", name)
			}
			return nil
		},
	}
}

func newWorkspaceCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean <map>...",
		Short: "Delete persisted maps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := run.Open(workspaceDir)
			if err != nil {
				return err
			}
			for _, name := range args {
				if err := ws.Delete(cmd.Context(), name); err != nil {
					printError("delete %q failed: %v", name, err)
					return err
				}
			}
			printSuccess("Deleted %d map(s)", len(args))
			return nil
		},
	}
}
