package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"betterauth/internal/app"
	"betterauth/internal/logging"
)

const passphraseEnv = "BETTERAUTH_PASSPHRASE"

var (
	home       string
	passphrase string
	cfg        app.Config
	appCtx     *app.App

	serverURL string
	algorithm string
	logLevel  string
	logFile   string
	timeout   time.Duration
)

// Execute runs the CLI under ctx.
func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:           "betterauth",
		Short:         "Passwordless public-key authentication client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := app.DefaultHome()
				if err != nil {
					return err
				}
				home = dir
			}
			var err error
			if cfg, err = app.LoadConfig(home); err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("server") {
				cfg.ServerURL = serverURL
			}
			if flags.Changed("algorithm") {
				cfg.Algorithm = algorithm
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("log-file") {
				cfg.LogFile = logFile
			}
			if flags.Changed("timeout") {
				cfg.Timeout = timeout
			}
			cfg.Passphrase = passphrase
			if cfg.Passphrase == "" {
				cfg.Passphrase = os.Getenv(passphraseEnv)
			}

			if err := logging.InitLog(cfg.LogLevel, cfg.LogFile); err != nil {
				return err
			}
			if cmd.Annotations["offline"] == "true" {
				return nil
			}
			if cfg.Passphrase == "" {
				return fmt.Errorf("passphrase required (-p or $%s)", passphraseEnv)
			}
			appCtx, err = app.New(cfg)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appCtx != nil {
				appCtx.Close()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&home, "home", "", "config dir (default ~/.betterauth)")
	pf.StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys (or $"+passphraseEnv+")")
	pf.StringVar(&serverURL, "server", "", "server base URL (e.g. http://127.0.0.1:8080)")
	pf.StringVar(&algorithm, "algorithm", "", "key algorithm: p256 or ed25519")
	pf.StringVar(&logLevel, "log-level", "", "log level (default info)")
	pf.StringVar(&logFile, "log-file", "", "log file path or console")
	pf.DurationVar(&timeout, "timeout", 0, "per-request timeout (default 30s)")

	root.AddCommand(
		initCmd(),
		whoamiCmd(),
		recoveryPhraseCmd(),
		createAccountCmd(),
		recoverCmd(),
		changeRecoveryCmd(),
		deleteAccountCmd(),
		linkContainerCmd(),
		linkCmd(),
		unlinkCmd(),
		rotateCmd(),
		sessionCmd(),
		requestCmd(),
	)
	return root.ExecuteContext(ctx)
}

// offline marks a command that runs without building the App.
func offline(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations["offline"] = "true"
	return cmd
}
