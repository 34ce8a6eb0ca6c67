// Package app wires the providers into the provisioning pipeline and runs
// them in fixed dependency order.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/4maggio/Kinderkuchen/internal/config"
	"github.com/4maggio/Kinderkuchen/internal/domain/install"
	"github.com/4maggio/Kinderkuchen/internal/domain/retry"
	"github.com/4maggio/Kinderkuchen/internal/ports"
	"github.com/4maggio/Kinderkuchen/internal/provider/account"
	"github.com/4maggio/Kinderkuchen/internal/provider/apt"
	"github.com/4maggio/Kinderkuchen/internal/provider/autoboot"
	"github.com/4maggio/Kinderkuchen/internal/provider/bootconfig"
	"github.com/4maggio/Kinderkuchen/internal/provider/display"
	"github.com/4maggio/Kinderkuchen/internal/provider/project"
)

// Step names as they appear in outcomes and the summary report.
const (
	StepAccount     = "service-account"
	StepMaterialize = "materialize"
	StepDisplay     = "display-config"
	StepAutoboot    = "autoboot"
)

// Installer is the top-level sequencer. Steps run strictly one after
// another; the only state crossing step boundaries travels on the Plan.
type Installer struct {
	cfg     *config.Config
	runner  ports.CommandRunner
	fs      ports.FileSystem
	logger  ports.Logger
	confirm ports.Confirmer
	euid    func() int
}

// NewInstaller creates an Installer from its collaborators.
func NewInstaller(cfg *config.Config, runner ports.CommandRunner, fs ports.FileSystem, logger ports.Logger, confirm ports.Confirmer) *Installer {
	return &Installer{
		cfg:     cfg,
		runner:  runner,
		fs:      fs,
		logger:  logger,
		confirm: confirm,
		euid:    defaultEUID,
	}
}

// WithEUID overrides the privilege probe. Tests use it to run the
// pipeline without root.
func (i *Installer) WithEUID(fn func() int) *Installer {
	i.euid = fn
	return i
}

// Run executes the pipeline. Fatal conditions return an error alongside a
// report of whatever ran before the abort; prior mutations stand.
func (i *Installer) Run(ctx context.Context, mode install.RunMode) (*install.Report, error) {
	started := time.Now()
	plan := install.NewPlan(mode, i.cfg.Account)

	if mode == install.ModeAborted {
		i.logger.Info(ctx, "aborted before any changes")
		return install.NewReport(plan, started), nil
	}

	if i.euid() != 0 {
		return install.NewReport(plan, started), install.ErrNotRoot
	}

	if err := i.ensureAccount(ctx, plan); err != nil {
		return install.NewReport(plan, started), err
	}

	manager := apt.NewManager(i.runner, i.logger, i.cfg.IndexAttempts, i.cfg.InstallAttempts, i.cfg.RetryDelay.Std())
	for _, stage := range i.cfg.Stages {
		if err := i.runStage(ctx, plan, manager, stage); err != nil {
			return install.NewReport(plan, started), err
		}
	}

	if err := i.materialize(ctx, plan); err != nil {
		return install.NewReport(plan, started), err
	}

	i.configureDisplay(ctx, plan)

	if err := i.configureAutoboot(ctx, plan); err != nil {
		return install.NewReport(plan, started), err
	}

	return install.NewReport(plan, started), nil
}

// ensureAccount provisions the service account. Failure here is fatal:
// everything after runs as or chowns to this account.
func (i *Installer) ensureAccount(ctx context.Context, plan *install.Plan) error {
	provisioner := account.NewProvisioner(i.runner, i.logger, i.confirm, i.cfg.Groups)

	acct, err := provisioner.Ensure(ctx, i.cfg.Account)
	if err != nil {
		plan.Record(install.StepOutcome{Step: StepAccount, Status: install.StatusFailed, Err: err})
		return err
	}

	plan.Record(install.StepOutcome{Step: StepAccount, Status: install.StatusSuccess})
	i.logger.Debug(ctx, "account ensured",
		ports.F("account", acct.Name),
		ports.F("created", acct.Created),
		ports.F("groups_added", len(acct.AddedGroups)))
	return nil
}

// runStage dispatches one package stage.
func (i *Installer) runStage(ctx context.Context, plan *install.Plan, manager *apt.Manager, stage config.Stage) error {
	switch stage.Name {
	case config.StageSystemUpdate:
		return i.runSystemUpdate(ctx, plan, manager, stage)
	case config.StageGUIToolkit:
		return i.runToolkitStage(ctx, plan, manager, stage)
	default:
		return i.runPackageStage(ctx, plan, manager, stage)
	}
}

// runSystemUpdate refreshes the package index and upgrades the system.
func (i *Installer) runSystemUpdate(ctx context.Context, plan *install.Plan, manager *apt.Manager, stage config.Stage) error {
	ok, err := i.confirm.Confirm(stage.Prompt, stage.DefaultConfirm)
	if err != nil {
		return err
	}
	if !ok {
		plan.Record(install.StepOutcome{Step: stage.Name, Status: install.StatusSkipped})
		return nil
	}

	if result := manager.RefreshIndex(ctx); !result.Success() {
		return i.recordStageFailure(ctx, plan, stage, result)
	}
	if result := manager.FullUpgrade(ctx); !result.Success() {
		return i.recordStageFailure(ctx, plan, stage, result)
	}

	plan.Record(install.StepOutcome{Step: stage.Name, Status: install.StatusSuccess})
	return nil
}

// runPackageStage confirms and installs one stage's package set.
func (i *Installer) runPackageStage(ctx context.Context, plan *install.Plan, manager *apt.Manager, stage config.Stage) error {
	ok, err := i.confirm.Confirm(stage.Prompt, stage.DefaultConfirm)
	if err != nil {
		return err
	}
	if !ok {
		plan.Record(install.StepOutcome{Step: stage.Name, Status: install.StatusSkipped})
		plan.MarkAbsent(stage.Capability)

		if stage.Required {
			return fmt.Errorf("stage %s: %w", stage.Name, install.ErrDeclined)
		}
		if stage.HardWarning {
			i.logger.Warn(ctx, "stage skipped, the kiosk application cannot render without it",
				ports.F("stage", stage.Name))
		} else {
			i.logger.Info(ctx, "stage skipped", ports.F("stage", stage.Name))
		}
		return nil
	}

	result := manager.Install(ctx, stage.Packages...)
	if !result.Success() {
		return i.recordStageFailure(ctx, plan, stage, result)
	}

	plan.Record(install.StepOutcome{Step: stage.Name, Status: install.StatusSuccess, Attempts: result.Attempts})
	return nil
}

// recordStageFailure books a failed stage. Required stages abort the run;
// optional stages degrade to an absent capability.
func (i *Installer) recordStageFailure(ctx context.Context, plan *install.Plan, stage config.Stage, result retry.Result) error {
	plan.Record(install.StepOutcome{
		Step:     stage.Name,
		Status:   install.StatusFailed,
		Attempts: result.Attempts,
		Err:      result.Err,
	})
	plan.MarkAbsent(stage.Capability)

	if stage.Required {
		return fmt.Errorf("stage %s after %d attempts: %w", stage.Name, result.Attempts, install.ErrStageFailed)
	}

	i.logger.Warn(ctx, "stage failed, continuing without it",
		ports.F("stage", stage.Name),
		ports.F("attempts", result.Attempts),
		ports.F("error", result.Err))
	return nil
}

// runToolkitStage offers the two mutually exclusive toolkit strategies
// and sets the toolkit mode on the plan. This is the one place state is
// threaded forward to the materializer.
func (i *Installer) runToolkitStage(ctx context.Context, plan *install.Plan, manager *apt.Manager, stage config.Stage) error {
	options := []string{
		fmt.Sprintf("system package (%s)", i.cfg.ToolkitPackage),
		"into the isolated environment during materialization",
	}
	choice, err := i.confirm.Choose("GUI toolkit installation strategy", options, 0)
	if err != nil {
		return err
	}

	if choice != 0 {
		plan.ToolkitMode = install.ToolkitIsolatedEnv
		plan.Record(install.StepOutcome{Step: stage.Name, Status: install.StatusSuccess})
		return nil
	}

	result := manager.Install(ctx, i.cfg.ToolkitPackage)
	if !result.Success() {
		// The venv path can still deliver the toolkit, so a failed
		// system install degrades instead of aborting.
		plan.Record(install.StepOutcome{
			Step:     stage.Name,
			Status:   install.StatusFailed,
			Attempts: result.Attempts,
			Err:      result.Err,
		})
		plan.ToolkitMode = install.ToolkitIsolatedEnv
		i.logger.Warn(ctx, "system toolkit install failed, falling back to the isolated environment",
			ports.F("attempts", result.Attempts),
			ports.F("error", result.Err))
		return nil
	}

	plan.ToolkitMode = install.ToolkitSystemPackage
	plan.Record(install.StepOutcome{Step: stage.Name, Status: install.StatusSuccess, Attempts: result.Attempts})
	return nil
}

// materialize installs the project tree and venv. Failure is fatal: there
// is no launchable executable path without it.
func (i *Installer) materialize(ctx context.Context, plan *install.Plan) error {
	materializer := project.NewMaterializer(i.runner, i.fs, i.logger)

	err := materializer.Materialize(ctx, i.cfg.SourceDir, i.cfg.TargetDir, i.cfg.Account, plan.ToolkitMode, i.cfg.ToolkitPipName)
	if err != nil {
		plan.Record(install.StepOutcome{Step: StepMaterialize, Status: install.StatusFailed, Err: err})
		return fmt.Errorf("%s: %w", StepMaterialize, err)
	}

	plan.Record(install.StepOutcome{Step: StepMaterialize, Status: install.StatusSuccess})
	return nil
}

// configureDisplay applies the boot configuration directives. A missing
// boot config file degrades to a warning inside the editor, so this step
// never aborts the run.
func (i *Installer) configureDisplay(ctx context.Context, plan *install.Plan) {
	editor := bootconfig.NewEditor(i.cfg.BootConfigPath, i.fs, i.logger)
	configurator := display.NewConfigurator(editor, i.confirm, i.logger, i.cfg.GPUMemory)

	if err := configurator.Apply(ctx); err != nil {
		plan.Record(install.StepOutcome{Step: StepDisplay, Status: install.StatusFailed, Err: err})
		i.logger.Warn(ctx, "display configuration failed", ports.F("error", err))
		return
	}
	plan.Record(install.StepOutcome{Step: StepDisplay, Status: install.StatusSuccess})
}

// configureAutoboot generates the boot-into-kiosk artifacts.
func (i *Installer) configureAutoboot(ctx context.Context, plan *install.Plan) error {
	configurator := autoboot.NewConfigurator(i.fs, i.runner, i.logger)

	params := autoboot.Params{
		Account:     i.cfg.Account,
		Home:        filepath.Join("/home", i.cfg.Account),
		TargetDir:   i.cfg.TargetDir,
		AppDir:      filepath.Join(i.cfg.TargetDir, i.cfg.AppSubdir),
		EntryScript: i.cfg.EntryScript,
		SettleDelay: i.cfg.SettleDelay.Std(),
	}

	if err := configurator.Apply(ctx, params); err != nil {
		plan.Record(install.StepOutcome{Step: StepAutoboot, Status: install.StatusFailed, Err: err})
		return fmt.Errorf("%s: %w", StepAutoboot, err)
	}

	plan.Record(install.StepOutcome{Step: StepAutoboot, Status: install.StatusSuccess})
	return nil
}
