// Package cli implements the backoffice command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/backoffice/internal/catalog"
	"github.com/mesh-intelligence/backoffice/internal/paths"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// userErrors are conditions caused by the command line rather than the
// environment.
var userErrors = []error{
	types.ErrUnknownResource,
	types.ErrNotFound,
	types.ErrUnsupported,
	types.ErrUnknownColumn,
	types.ErrNotSortable,
	types.ErrUnknownField,
	types.ErrUnknownSegment,
	types.ErrNotEditable,
	types.ErrTabDisabled,
	types.ErrConfirmationRequired,
}

// ExitCode maps an error returned by the root command to a process exit
// code. Gateway failures on the server or network side are system errors;
// everything else, including usage errors, is a user error.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		return exitUserError
	}
	if f, ok := types.FailureOf(err); ok {
		switch f.Kind {
		case types.FailureServer, types.FailureNetwork, types.FailureDecode:
			return exitSysError
		}
	}
	return exitUserError
}

// app holds the global flags and the state resolved before a command runs.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool

	v       *viper.Viper
	cfg     types.Config
	logger  *slog.Logger
	catalog *catalog.Catalog
}

// NewRootCmd creates the top-level "backoffice" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "backoffice",
		Short: "Browse and edit back-office resources",
		Long: "Backoffice lists, inspects and edits the resources of a back office\n" +
			"(parents, students, invoices, ...) against a REST API or a local store.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newResourcesCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newColumnsCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newEditCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newDeleteCmd(a))
	root.AddCommand(newBulkStatusCmd(a))
	root.AddCommand(newBulkDeleteCmd(a))
	root.AddCommand(newTaskCmd(a))
	root.AddCommand(newCommentCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newDumpCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(ExitCode(err))
	}
}

// setup loads the configuration, the logger and the resource catalog.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, cfg, err := loadConfig(configDir)
	if err != nil {
		return userError(err)
	}
	a.v, a.cfg = v, cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	cat, err := catalog.Load(v)
	if err != nil {
		return userError(err)
	}
	a.catalog = cat
	return nil
}

// resource looks up a resource config by key.
func (a *app) resource(key string) (types.ResourceConfig, error) {
	cfg, err := a.catalog.Get(key)
	if err != nil {
		return types.ResourceConfig{}, userError(fmt.Errorf("%w (known: %v)", err, a.catalog.Keys()))
	}
	return cfg, nil
}
