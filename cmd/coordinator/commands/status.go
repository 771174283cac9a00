package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/mtreecluster/internal/statusview"
	"github.com/haivivi/mtreecluster/internal/wire"
)

var statusAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a one-shot cluster status report",
	Long:  `status queries a running coordinator's GET /status and renders it.`,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "http://localhost:5000", "coordinator base URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusAddr+"/status", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("query %s: %w", statusAddr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coordinator returned status %d", resp.StatusCode)
	}

	var s wire.CoordinatorStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Print(statusview.Render(s))
	return nil
}
