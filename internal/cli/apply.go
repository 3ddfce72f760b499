package cli

import (
	"io"

	"github.com/RevCBH/veeamjob/internal/jobspec"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ApplyOptions holds flags for the apply command
type ApplyOptions struct {
	RequestFile string

	Type        string
	State       string
	Name        string
	RepoName    string
	IncludeDirs string
	Prefreeze   string
	MaxPoints   int
	RunDays     string
	RunAt       string
}

// NewApplyCmd creates the apply command
func NewApplyCmd(app *App) *cobra.Command {
	opts := ApplyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Make a backup job match the requested state",
		Long: `Apply reads a request document (YAML or JSON) and/or flags and makes the
named Veeam job present with the given attributes, or absent.

Flags override fields of the request document. Only flags that are set
are applied, so an unset optional attribute stays unmanaged.`,
		Example: `  veeamjob apply -f nightly.yaml
  veeamjob apply --name nightly --reponame repo1 --includedirs /srv --rundays All --runat 22:00
  echo '{"type":"job","name":"old","state":"absent"}' | veeamjob apply -f -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(cmd.InOrStdin(), opts, cmd.Flags())
			if err != nil {
				return app.fail(cmd.OutOrStdout(), app.opts.Output, err)
			}
			return app.runRequest(cmd, req)
		},
	}

	cmd.Flags().StringVarP(&opts.RequestFile, "request", "f", "", "Request document path, or - for stdin")
	cmd.Flags().StringVar(&opts.Type, "type", "", "Request type: job or list (default job)")
	cmd.Flags().StringVar(&opts.State, "state", "", "Desired state: present or absent (default present)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Job name")
	cmd.Flags().StringVar(&opts.RepoName, "reponame", "", "Target repository name")
	cmd.Flags().StringVar(&opts.IncludeDirs, "includedirs", "", "Directories to back up")
	cmd.Flags().StringVar(&opts.Prefreeze, "prefreeze", "", "Pre-freeze command")
	cmd.Flags().IntVar(&opts.MaxPoints, "maxpoints", 0, "Restore points to keep")
	cmd.Flags().StringVar(&opts.RunDays, "rundays", "", "Run days: All, or a comma separated weekday list")
	cmd.Flags().StringVar(&opts.RunAt, "runat", "", "Run time, HH:MM")

	return cmd
}

// buildRequest assembles a request from the optional document and the
// flags that were explicitly set.
func buildRequest(stdin io.Reader, opts ApplyOptions, flags *pflag.FlagSet) (jobspec.Request, error) {
	var req jobspec.Request
	var err error

	switch opts.RequestFile {
	case "":
	case "-":
		data, rerr := io.ReadAll(stdin)
		if rerr != nil {
			return jobspec.Request{}, errors.Wrap(rerr, "read request from stdin")
		}
		req, err = jobspec.ParseRequest(data)
	default:
		req, err = jobspec.LoadRequest(opts.RequestFile)
	}
	if err != nil {
		return jobspec.Request{}, err
	}

	if flags.Changed("type") {
		req.Type = jobspec.Type(opts.Type)
	}
	if req.Type == "" {
		req.Type = jobspec.TypeJob
	}
	if flags.Changed("state") {
		req.State = jobspec.State(opts.State)
	}
	if flags.Changed("name") {
		req.Name = opts.Name
	}
	if flags.Changed("reponame") {
		req.RepoName = opts.RepoName
	}
	if flags.Changed("includedirs") {
		req.IncludeDirs = opts.IncludeDirs
	}
	if flags.Changed("prefreeze") {
		req.Prefreeze = strPtr(opts.Prefreeze)
	}
	if flags.Changed("maxpoints") {
		p := jobspec.Points(opts.MaxPoints)
		req.MaxPoints = &p
	}
	if flags.Changed("rundays") {
		req.RunDays = strPtr(opts.RunDays)
	}
	if flags.Changed("runat") {
		req.RunAt = strPtr(opts.RunAt)
	}
	return req, nil
}

func strPtr(s string) *string {
	return &s
}
