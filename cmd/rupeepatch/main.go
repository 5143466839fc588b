// Command rupeepatch patches a Terraria executable to show coins as rupees
// and swaps the coin content for rupee sprites and sounds.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ConfigFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:           "rupeepatch",
		Short:         "Rupee replacer for Terraria and tModLoader",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&ConfigFlag, "config", "c", "", "Path to the config/data directory")

	patchCmd.Flags().StringVar(&VariantFlag, "variant", "", "Build variant of the executable (vanilla, tmodloader)")
	patchCmd.Flags().BoolVarP(&ForceFlag, "force", "f", false, "Patch even if the executable version is not supported")
	patchCmd.Flags().BoolVar(&RestoreFirstFlag, "restore-first", false, "Restore the executable from its backup before patching")
	patchCmd.Flags().BoolVar(&SkipConfigFlag, "skip-config", false, "Do not write the runtime rupee config next to the executable")

	contentCmd.AddCommand(contentReplaceCmd)
	contentCmd.AddCommand(contentRestoreCmd)

	inspectCmd.Flags().StringVarP(&MethodFlag, "method", "m", "", "Only show the named Type.Method")
	inspectCmd.Flags().StringVar(&FormatFlag, "format", "text", "Output format (text, yaml)")
	inspectCmd.Flags().BoolVar(&RawFlag, "raw", false, "Dump the in-memory module structures")

	historyCmd.Flags().IntVarP(&LimitFlag, "limit", "n", 20, "Number of records to show (0 for all)")

	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(previewCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
