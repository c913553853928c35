package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/bridge/internal/core/domain"
)

var serverAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show health and request counters of a running bridge",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverAddr, "addr", "http://localhost:8080", "address of the running bridge")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	client := &http.Client{Timeout: 10 * time.Second}

	health := struct {
		Status   string            `json:"status"`
		Backends map[string]string `json:"backends"`
	}{}
	if err := fetchJSON(client, serverAddr+"/health", &health); err != nil {
		slog.Error("Failed to query health", "error", err)
		os.Exit(1)
	}

	var stats map[string]domain.Stats
	if err := fetchJSON(client, serverAddr+"/stats", &stats); err != nil {
		slog.Error("Failed to query stats", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Status: %s\n\n", health.Status)

	names := make([]string, 0, len(health.Backends))
	for name := range health.Backends {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "BACKEND\tHEALTH\tREQUESTS\tOK\tFAILED\tPROGRAMS")
	for _, name := range names {
		s := stats[name]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n",
			name, health.Backends[name], s.RequestsTotal, s.Successes, s.Failures, s.ProgramsActive)
	}
	_ = w.Flush()
}

func fetchJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	// /health answers 503 when degraded; the body is still valid.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
