package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/MeKo-Tech/keva/internal/journey"
	"github.com/spf13/cobra"
)

// reportCmd fetches the per-stage latency summary from a running server.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show per-stage latency summary from a running server",
	Long: `Fetch the aggregated operation journey report from a running keva
server and print it.

The server must have been started with --tracking for a report to be
available.

Examples:
  keva report
  keva report --addr http://keva.internal:8080
  keva report --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		asJSON, _ := cmd.Flags().GetBool("json")

		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Get(addr + "/admin/journeys")
		if err != nil {
			return fmt.Errorf("fetching journey report: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading journey report: %w", err)
		}

		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("journey tracking is disabled on %s (start the server with --tracking)", addr)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, addr)
		}

		if asJSON {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		}

		var report journey.Report
		if err := json.Unmarshal(body, &report); err != nil {
			return fmt.Errorf("decoding journey report: %w", err)
		}

		return printReport(cmd.OutOrStdout(), report)
	},
}

func printReport(out io.Writer, report journey.Report) error {
	fmt.Fprintf(out, "Operations: %d\n", report.Operations)
	if !report.Stable {
		fmt.Fprintln(out, "Note: captures were racing this snapshot; values may be torn")
	}
	if len(report.Stages) == 0 {
		fmt.Fprintln(out, "No operations captured yet")
		return nil
	}

	names := make([]string, 0, len(report.Stages))
	for name := range report.Stages {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tOPS\tMIN\tAVG\tMAX")
	for _, name := range names {
		s := report.Stages[name]
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", name, s.Ops, s.Min, s.Avg, s.Max)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().String("addr", "http://localhost:8080", "base URL of the running keva server")
	reportCmd.Flags().Bool("json", false, "print the raw JSON report")
}
