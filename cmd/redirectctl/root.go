package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/issafronov/siteredirect/internal/app/queryparams"
	"github.com/issafronov/siteredirect/internal/app/redirect"
	"github.com/issafronov/siteredirect/internal/app/storage"
	"github.com/spf13/cobra"
)

type decideOptions struct {
	settingsFile string
	admin        bool
	login        bool
	asCLI        bool
	asJSON       bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "redirectctl",
		Short:         "Offline tools for site redirect settings",
		Long:          "redirectctl evaluates redirect decisions and sanitizes settings values without running the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDecideCmd(), newSanitizeCmd())
	return root
}

func newDecideCmd() *cobra.Command {
	opts := &decideOptions{}
	cmd := &cobra.Command{
		Use:   "decide URL",
		Short: "Print the redirect decision for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecide(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.settingsFile, "settings", "f", "", "Settings JSON file (as written by the server)")
	cmd.Flags().BoolVar(&opts.admin, "admin", false, "Treat the request as an admin page")
	cmd.Flags().BoolVar(&opts.login, "login", false, "Treat the request as the login endpoint")
	cmd.Flags().BoolVar(&opts.asCLI, "as-cli", false, "Treat the request as a command line invocation")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the decision as JSON")
	_ = cmd.MarkFlagRequired("settings")
	return cmd
}

func runDecide(cmd *cobra.Command, opts *decideOptions, rawURL string) error {
	settings, err := loadSettings(opts.settingsFile)
	if err != nil {
		return err
	}

	d := redirect.NewEngine().Evaluate(models.CurrentRequest{
		RawURL: rawURL,
		RequestFlags: models.RequestFlags{
			IsAdminContext:  opts.admin,
			IsLoginEndpoint: opts.login,
			IsCLIInvocation: opts.asCLI,
		},
	}, settings)

	out := cmd.OutOrStdout()
	if opts.asJSON {
		return json.NewEncoder(out).Encode(d)
	}
	if d.Redirect {
		fmt.Fprintf(out, "redirect %d %s\n", d.Status, d.Location)
		return nil
	}
	fmt.Fprintf(out, "no redirect (%s)\n", d.Reason)
	return nil
}

func loadSettings(path string) (models.Settings, error) {
	settings, err := storage.ReadSettingsFile(path)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Settings{}, fmt.Errorf("settings file %s not found or empty", path)
	}
	return settings, err
}

func newSanitizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanitize",
		Short: "Sanitize settings values the way the admin form does",
	}

	var site string
	target := &cobra.Command{
		Use:   "target URL",
		Short: "Validate a redirect target and check it for loops",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clean, warning := redirect.SanitizeTarget(args[0], site)
			if clean == "" {
				return fmt.Errorf("%q is not an absolute URL", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), clean)
			if warning != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", warning)
			}
			return nil
		},
	}
	target.Flags().StringVar(&site, "site", "", "Public URL of the site for loop detection")

	params := &cobra.Command{
		Use:   "params SPEC",
		Short: "Normalize an excluded query parameters list (name or name=value, comma separated)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), queryparams.Sanitize(args[0]))
			return nil
		},
	}

	cmd.AddCommand(target, params)
	return cmd
}
