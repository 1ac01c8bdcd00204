package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/entrhq/onboard/pkg/bootstrap"
	"github.com/entrhq/onboard/pkg/config"
	"github.com/entrhq/onboard/pkg/executor"
	"github.com/entrhq/onboard/pkg/logging"
)

const version = "0.1.0"

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "onboard",
		Short:         "Automated account onboarding through a real browser",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to run configuration (YAML)")

	root.AddCommand(newRunCmd(&cfgFile))
	root.AddCommand(newValidateCmd(&cfgFile))
	root.AddCommand(newVersionCmd())
	return root
}

func newRunCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the onboarding sequence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				return err
			}

			logger, logErr := logging.NewLogger("onboard", logging.Options{
				File:       cfg.Logging.File,
				MaxSizeMB:  cfg.Logging.MaxSizeMB,
				MaxBackups: cfg.Logging.MaxBackups,
			})
			if logErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v, logging to stderr\n", logErr)
			}
			defer logger.Close()
			logger.Info("Starting onboard", zap.String("version", version), zap.String("log", logger.LogPath()))

			console := executor.NewConsoleWriter(executor.ParseLogLevel(cfg.Logging.Verbosity), cmd.OutOrStdout())
			exec, err := executor.NewExecutor(cfg,
				executor.WithLogger(logger),
				executor.WithConsole(console),
			)
			if err != nil {
				return err
			}

			_, err = exec.Run(cmd.Context())
			return err
		},
	}
}

func newValidateCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and session state without launching a browser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				return err
			}

			state, err := bootstrap.LoadSessionState(cfg.Session.StatePath)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				return err
			}

			suffix := cfg.Session.CookieDomain
			if suffix == "" {
				suffix, err = bootstrap.DomainSuffix(cfg.Session.ProviderURL)
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
					return err
				}
			}

			matching := state.Filter(suffix)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration OK")
			fmt.Fprintf(out, "  Backend: %s\n", cfg.Browser.Backend)
			fmt.Fprintf(out, "  Output: %s\n", cfg.Output.Dir)
			fmt.Fprintf(out, "  Session cookies: %d of %d match %s\n", len(matching), len(state.Cookies), suffix)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "onboard v%s\n", version)
		},
	}
}
