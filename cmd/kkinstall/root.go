package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/4maggio/Kinderkuchen/internal/adapters/command"
	"github.com/4maggio/Kinderkuchen/internal/adapters/filesystem"
	"github.com/4maggio/Kinderkuchen/internal/adapters/logging"
	"github.com/4maggio/Kinderkuchen/internal/adapters/prompt"
	"github.com/4maggio/Kinderkuchen/internal/app"
	"github.com/4maggio/Kinderkuchen/internal/config"
	"github.com/4maggio/Kinderkuchen/internal/domain/install"
	"github.com/4maggio/Kinderkuchen/internal/ports"
)

var (
	modeFlag    string
	configFlag  string
	accountFlag string
	sourceFlag  string
	targetFlag  string
	dryRunFlag  bool
	jsonLogFlag bool
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "kkinstall",
	Short: "Provision a minimal Linux host into a Kinderkuchen kiosk",
	Long: `kkinstall converges the host into a kiosk that boots straight into
the Kinderkuchen calendar application: it installs the display stack and
runtime, provisions the service account, materializes the project with its
isolated Python environment, and writes the boot and session artifacts.

Every mutation is idempotent, so re-running the installer against an
already provisioned host changes nothing further.`,
	SilenceUsage: true,
	RunE:         runInstall,
}

func init() {
	rootCmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Run mode: interactive, auto, or abort (prompted when omitted)")
	rootCmd.Flags().StringVarP(&configFlag, "config", "c", "kkinstall.yaml", "Path to the installer manifest")
	rootCmd.Flags().StringVar(&accountFlag, "account", "", "Override the service account name")
	rootCmd.Flags().StringVar(&sourceFlag, "source", "", "Override the project source directory")
	rootCmd.Flags().StringVar(&targetFlag, "target", "", "Override the install root")
	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Log every command without mutating the host")
	rootCmd.Flags().BoolVar(&jsonLogFlag, "log-json", false, "Emit JSON log lines")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runInstall(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	logger := buildLogger()

	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	if accountFlag != "" {
		cfg.Account = accountFlag
	}
	if sourceFlag != "" {
		cfg.SourceDir = sourceFlag
	}
	if targetFlag != "" {
		cfg.TargetDir = targetFlag
	}

	mode, err := selectMode(cmd)
	if err != nil {
		return err
	}

	var confirmer ports.Confirmer
	if mode == install.ModeInteractive {
		confirmer = prompt.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
	} else {
		confirmer = prompt.NewAuto()
	}

	var runner ports.CommandRunner = command.NewRealRunner()
	var fs ports.FileSystem = filesystem.NewReal()
	if dryRunFlag {
		runner = command.NewDryRunner(logger)
		fs = filesystem.NewDryRun(fs, logger)
	}

	installer := app.NewInstaller(cfg, runner, fs, logger, confirmer)

	report, runErr := installer.Run(ctx, mode)
	if report != nil && len(report.Outcomes) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		report.Render(cmd.OutOrStdout())
	}

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, install.ErrNotRoot):
		return fmt.Errorf("insufficient privilege: %w (re-run with sudo)", runErr)
	default:
		return runErr
	}
}

// selectMode resolves the run mode from the flag, prompting when absent.
func selectMode(cmd *cobra.Command) (install.RunMode, error) {
	if modeFlag != "" {
		return install.ParseRunMode(modeFlag)
	}

	chooser := prompt.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
	choice, err := chooser.Choose("How should the installer run?", []string{
		"interactive (confirm every step)",
		"automatic (confirm every step silently)",
		"abort (exit without changes)",
	}, 0)
	if err != nil {
		return "", err
	}

	switch choice {
	case 1:
		return install.ModeAutoConfirm, nil
	case 2:
		return install.ModeAborted, nil
	default:
		return install.ModeInteractive, nil
	}
}

func buildLogger() ports.Logger {
	opts := []logging.ConsoleLoggerOption{
		logging.WithOutput(os.Stderr),
	}
	if jsonLogFlag {
		opts = append(opts, logging.WithJSONFormat(true))
	}
	if verboseFlag {
		opts = append(opts, logging.WithLevel(ports.LevelDebug))
	}
	return logging.NewConsoleLogger(opts...)
}
