package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dcrodman/rupeepatch/internal/content"
	"github.com/dcrodman/rupeepatch/internal/core/data"
	"github.com/dcrodman/rupeepatch/internal/patcher"
)

var patchCmd = &cobra.Command{
	Use:   "patch [exe]",
	Short: "Patches the game executable to display coins as rupees",
	Run:   PatchCommand,
	Args:  cobra.MaximumNArgs(1),
}

var restoreCmd = &cobra.Command{
	Use:   "restore [exe]",
	Short: "Restores the game executable from its backup",
	Run:   RestoreCommand,
	Args:  cobra.MaximumNArgs(1),
}

var (
	VariantFlag      string
	ForceFlag        bool
	RestoreFirstFlag bool
	SkipConfigFlag   bool
)

func PatchCommand(cmd *cobra.Command, args []string) {
	cfg, logger := loadConfig(args)
	requireExe(cfg)

	opts := cfg.PatchOptions()
	if VariantFlag != "" {
		v, err := patcher.ParseVariant(VariantFlag)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		opts.Variant = v
	}
	opts.Force = ForceFlag
	opts.Logger = logger

	run := patcher.Patch
	if RestoreFirstFlag {
		run = patcher.RestoreAndPatch
	}
	result, err := run(opts)

	record := &data.PatchRecord{
		Kind:          data.KindPatch,
		Variant:       result.Variant.String(),
		Version:       result.Version,
		BackupCreated: result.BackupCreated,
	}
	record.SetDescriptorNames(result.Descriptors)
	recordRun(cfg, logger, record, err)

	if err != nil {
		switch {
		case errors.Is(err, patcher.ErrAlreadyPatched):
			fmt.Println("executable is already patched; use restore or --restore-first to patch again")
		case errors.Is(err, patcher.ErrUnsupportedVersion):
			fmt.Printf("%v\nuse --force to patch anyway\n", err)
		default:
			fmt.Println("error patching executable:", err)
		}
		os.Exit(1)
	}

	if !SkipConfigFlag {
		if err := content.SaveRuntimeConfig(cfg.ExeDir(), cfg.ContentSettings()); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}

	fmt.Printf("patched %s (%s %s)\n", cfg.ExePath, result.Variant, result.Version)
	fmt.Printf("applied: %s\n", strings.Join(result.Descriptors, ", "))
	if result.BackupCreated {
		fmt.Printf("backup written to %s\n", opts.BackupPath)
	}
}

func RestoreCommand(cmd *cobra.Command, args []string) {
	cfg, logger := loadConfig(args)
	requireExe(cfg)

	err := patcher.Restore(patcher.RestoreOptions{ExePath: cfg.ExePath, BackupPath: cfg.BackupPath()})
	recordRun(cfg, logger, &data.PatchRecord{Kind: data.KindRestore, Variant: cfg.Variant().String()}, err)
	if err != nil {
		if errors.Is(err, patcher.ErrNoBackup) {
			fmt.Printf("no backup found at %s\n", cfg.BackupPath())
		} else {
			fmt.Println("error restoring executable:", err)
		}
		os.Exit(1)
	}
	logger.Infow("restored executable", "exe", cfg.ExePath, "backup", cfg.BackupPath())
	fmt.Printf("restored %s from %s\n", cfg.ExePath, cfg.BackupPath())
}
