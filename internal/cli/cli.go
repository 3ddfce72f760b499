package cli

import (
	"io"
	"os"

	"github.com/RevCBH/veeamjob/internal/executor"
	"github.com/spf13/cobra"
)

// VersionInfo holds build metadata set via ldflags
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// GlobalOptions holds the persistent flags shared by every subcommand
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Output     string
	Check      bool
}

// App represents the CLI application with all wired dependencies
type App struct {
	// Root command
	rootCmd *cobra.Command

	opts        GlobalOptions
	versionInfo VersionInfo

	// newRunner builds the process runner; tests substitute a stub
	newRunner func(executor.Options) executor.Runner

	// logOut receives log output, stderr unless overridden
	logOut io.Writer

	// notifySignals registers with OS signal delivery; off in tests
	notifySignals bool
}

// New creates a new CLI application
func New() *App {
	app := &App{
		newRunner:     executor.New,
		logOut:        os.Stderr,
		notifySignals: true,
	}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion sets the version string for the version command
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// setupRootCmd configures the root Cobra command
func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "veeamjob",
		Short: "Declarative Veeam Agent for Linux backup jobs",
		Long: `veeamjob makes a file-level Veeam backup job match a declared state,
driving the veeamconfig command line tool and reporting whether anything changed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add persistent flags
	pf := a.rootCmd.PersistentFlags()
	pf.StringVarP(&a.opts.ConfigPath, "config", "c", "",
		"Config file (default .veeamjob.yaml in the working directory)")
	pf.BoolVarP(&a.opts.Verbose, "verbose", "v", false,
		"Verbose output")
	pf.StringVarP(&a.opts.Output, "output", "o", "",
		"Result format: auto, json, yaml or text (overrides config)")
	pf.BoolVar(&a.opts.Check, "check", false,
		"Validate the request and report without calling veeamconfig")

	a.rootCmd.AddCommand(
		NewApplyCmd(a),
		NewListCmd(a),
		NewVersionCmd(a),
	)
}
