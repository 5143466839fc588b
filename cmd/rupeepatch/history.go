package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dcrodman/rupeepatch/internal/core/data"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists previous patch and content runs",
	Run:   HistoryCommand,
	Args:  cobra.NoArgs,
}

var LimitFlag int

func HistoryCommand(cmd *cobra.Command, args []string) {
	cfg, logger := loadConfig(nil)
	db := openDB(cfg, logger)
	if db == nil {
		fmt.Println("history database is unavailable")
		os.Exit(1)
	}
	defer data.Shutdown(db)

	records, err := data.ListPatches(db, LimitFlag)
	if err != nil {
		fmt.Println("error reading history:", err)
		os.Exit(1)
	}
	writeHistory(os.Stdout, records)
}

func writeHistory(w io.Writer, records []data.PatchRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tEXECUTABLE\tVARIANT\tVERSION\tRESULT")
	for _, r := range records {
		result := "ok"
		if !r.Success {
			result = "failed: " + r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Kind, r.ExePath, r.Variant, r.Version, result)
	}
	tw.Flush()
}
