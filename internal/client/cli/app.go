package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/workloadtracker/internal/client/api"
	"github.com/dmitrijs2005/workloadtracker/internal/client/config"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

// App is the state shared by all commands of one invocation.
type App struct {
	config *config.Config
	client *api.Client
	reader *bufio.Reader
	out    io.Writer
}

func newApp(cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	path, err := cfg.TokenPath()
	if err != nil {
		return nil, fmt.Errorf("token path: %w", err)
	}

	client, err := api.New(cfg.ServerURL,
		api.WithStore(api.NewFileStore(path)),
		api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, err
	}

	return &App{config: cfg, client: client, reader: bufio.NewReader(in), out: out}, nil
}

// NewRootCmd builds the command tree. in and out replace stdin/stdout so
// tests can drive the CLI.
func NewRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var (
		app     *App
		cfgFile string
	)

	root := &cobra.Command{
		Use:           "wt",
		Short:         "Command line client for the workload tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			app, err = newApp(cfg, in, out)
			return err
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.workloadtracker.yaml)")
	root.PersistentFlags().String("server-url", "", "tracker base URL")
	root.PersistentFlags().StringP("username", "u", "", "login name")
	root.PersistentFlags().String("token-file", "", "where the session token is stored")

	current := func() *App { return app }
	root.AddCommand(
		newLoginCmd(current),
		newLogoutCmd(current),
		newWhoamiCmd(current),
		newWorkloadsCmd(current),
	)
	return root
}

// Execute runs the CLI and maps errors to a message and exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out io.Writer) int {
	root := NewRootCmd(in, out)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(out, "error:", describe(err))
		return 1
	}
	return 0
}

func describe(err error) string {
	switch {
	case errors.Is(err, api.ErrReauthRequired):
		return "not logged in or session expired, run `wt login`"
	case errors.Is(err, api.ErrUnavailable):
		return "server unavailable: " + err.Error()
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
