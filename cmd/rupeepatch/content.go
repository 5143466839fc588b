package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dcrodman/rupeepatch/internal/content"
	"github.com/dcrodman/rupeepatch/internal/core/data"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Rupee sprite and sound replacement",
}

var contentReplaceCmd = &cobra.Command{
	Use:   "replace [exe]",
	Short: "Replaces the coin sprites and sounds with the configured rupees",
	Run:   ContentReplaceCommand,
	Args:  cobra.MaximumNArgs(1),
}

var contentRestoreCmd = &cobra.Command{
	Use:   "restore [exe]",
	Short: "Restores the original coin sprites and sounds",
	Run:   ContentRestoreCommand,
	Args:  cobra.MaximumNArgs(1),
}

func ContentReplaceCommand(cmd *cobra.Command, args []string) {
	cfg, logger := loadConfig(args)
	requireExe(cfg)

	opts := cfg.ContentOptions()
	opts.Logger = logger
	err := content.NewReplacer(opts).Replace()
	if err == nil {
		err = content.SaveRuntimeConfig(cfg.ExeDir(), opts.Settings)
	}
	recordRun(cfg, logger, &data.PatchRecord{Kind: data.KindContentReplace}, err)
	if err != nil {
		fmt.Println("error replacing content:", err)
		os.Exit(1)
	}

	p := opts.Settings.Palette
	fmt.Printf("replaced content in %s\n", opts.ContentDir)
	fmt.Printf("copper=%s silver=%s gold=%s platinum=%s\n", p.Copper, p.Silver, p.Gold, p.Platinum)
}

func ContentRestoreCommand(cmd *cobra.Command, args []string) {
	cfg, logger := loadConfig(args)
	requireExe(cfg)

	opts := cfg.ContentOptions()
	opts.Logger = logger
	missing, err := content.NewReplacer(opts).Restore()
	recordRun(cfg, logger, &data.PatchRecord{Kind: data.KindContentRestore}, err)
	if err != nil {
		fmt.Println("error restoring content:", err)
		os.Exit(1)
	}

	fmt.Printf("restored content in %s\n", opts.ContentDir)
	if len(missing) > 0 {
		fmt.Printf("%d files had no backup:\n", len(missing))
		for _, f := range missing {
			fmt.Println("  " + f)
		}
	}
}
