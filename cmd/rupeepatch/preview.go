package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/dcrodman/rupeepatch/internal/content"
	"github.com/dcrodman/rupeepatch/internal/rupee"
)

var previewCmd = &cobra.Command{
	Use:   "preview value...",
	Short: "Shows how coin values read once patched",
	Run:   PreviewCommand,
	Args:  cobra.MinimumNArgs(1),
}

var FromExeFlag bool

func init() {
	previewCmd.Flags().BoolVar(&FromExeFlag, "from-exe", false, "Use the rupee config installed next to the executable")
}

func PreviewCommand(cmd *cobra.Command, args []string) {
	cfg, _ := loadConfig(nil)

	palette := cfg.ContentSettings().Palette
	if FromExeFlag {
		requireExe(cfg)
		s, err := content.LoadRuntimeConfig(cfg.ExeDir())
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		palette = s.Palette
	}

	if err := writePreview(os.Stdout, palette, args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func writePreview(w io.Writer, palette rupee.Palette, args []string) error {
	for _, arg := range args {
		value, err := cast.ToIntE(arg)
		if err != nil {
			return errors.Wrapf(err, "invalid coin value %q", arg)
		}
		fmt.Fprintf(w, "%d\n", value)
		fmt.Fprintf(w, "  text:   %s\n", palette.Text(value))
		fmt.Fprintf(w, "  pickup: %s (%s)\n", palette.Name(value), palette.ColorOf(value))
		fmt.Fprintf(w, "  markup: %s\n", palette.Markup(value))
	}
	return nil
}
