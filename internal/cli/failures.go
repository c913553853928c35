package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/bridge/internal/core/config"
	redisclient "github.com/vietddude/bridge/internal/infra/redis"
)

var failureLimit int64

var failuresCmd = &cobra.Command{
	Use:   "failures [backend]",
	Short: "List recent exhausted failures recorded for a backend",
	Args:  cobra.ExactArgs(1),
	Run:   runFailures,
}

var clearFailuresCmd = &cobra.Command{
	Use:   "clear-failures [backend]",
	Short: "Drop the recorded failures for a backend",
	Args:  cobra.ExactArgs(1),
	Run:   runClearFailures,
}

func init() {
	failuresCmd.Flags().Int64Var(&failureLimit, "limit", 20, "maximum records to show")
	rootCmd.AddCommand(failuresCmd)
	rootCmd.AddCommand(clearFailuresCmd)
}

func openJournal() *redisclient.FailureJournal {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.URL == "" {
		fmt.Println("No failure journal configured (redis.url is empty)")
		os.Exit(1)
	}

	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return redisclient.NewFailureJournal(client)
}

func runFailures(cmd *cobra.Command, args []string) {
	journal := openJournal()

	ctx := context.Background()
	records, err := journal.Recent(ctx, args[0], failureLimit)
	if err != nil {
		slog.Error("Failed to read journal", "error", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Printf("No recorded failures for %s\n", args[0])
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "AT\tOPERATION\tKIND\tATTEMPTS\tMESSAGE")
	for _, rec := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			rec.At.Format(time.RFC3339), rec.Operation, rec.Kind, rec.Attempts, rec.Message)
	}
	_ = w.Flush()
}

func runClearFailures(cmd *cobra.Command, args []string) {
	journal := openJournal()

	n, err := journal.Clear(context.Background(), args[0])
	if err != nil {
		slog.Error("Failed to clear journal", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Cleared %d recorded failures for %s\n", n, args[0])
}
