package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backoffice/internal/paths"
	"github.com/mesh-intelligence/backoffice/internal/render"
	"github.com/mesh-intelligence/backoffice/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	var seed string
	var user bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the local store",
		Long: "Create the data directory and the local SQLite store, optionally\n" +
			"loading a JSONL seed file (one document per line with a _collection field).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := a.dataDir
			if user && dataDir == "" {
				dir, err := paths.DefaultDataDir()
				if err != nil {
					return sysError(fmt.Errorf("resolve user data dir: %w", err))
				}
				dataDir = dir
			}
			dataDir, err := paths.ResolveDataDir(dataDir, a.cfg.DataDir)
			if err != nil {
				return sysError(fmt.Errorf("resolve data dir: %w", err))
			}
			if err := paths.EnsureDir(dataDir); err != nil {
				return sysError(err)
			}

			b := sqlite.NewBackend()
			if err := b.Attach(dataDir); err != nil {
				return sysError(fmt.Errorf("initialize store: %w", err))
			}
			defer b.Detach()

			n := 0
			if seed != "" {
				if n, err = b.Seed(cmd.Context(), seed); err != nil {
					return sysError(fmt.Errorf("seed: %w", err))
				}
			}
			out := cmd.OutOrStdout()
			if a.jsonMode {
				return render.New(out).JSON(map[string]any{"data_dir": dataDir, "seeded": n})
			}
			fmt.Fprintf(out, "Backoffice initialized at %s\n", dataDir)
			if seed != "" {
				fmt.Fprintf(out, "Seeded %d documents from %s\n", n, seed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "JSONL file to load into the store")
	cmd.Flags().BoolVar(&user, "user", false, "use the per-user data directory instead of the working directory")
	return cmd
}

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Write every document in the local store to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer b.Detach()
			n, err := b.Dump(cmd.Context(), args[0])
			if err != nil {
				return sysError(fmt.Errorf("dump: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d documents to %s\n", n, args[0])
			return nil
		},
	}
}
