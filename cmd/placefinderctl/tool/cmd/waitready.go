package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	waitURL     string
	waitTimeout time.Duration
	waitEvery   time.Duration
)

// waitreadyCmd waits until placefinder reports a healthy backend
var waitreadyCmd = &cobra.Command{
	Use:   "waitready",
	Short: "等待 placefinder /healthz 就绪（部署编排用）",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		defer cancel()
		return waitReady(ctx, http.DefaultClient, waitURL, waitEvery)
	},
}

func init() {
	waitreadyCmd.Flags().StringVar(&waitURL, "url", "http://127.0.0.1:8000/healthz", "就绪探针 URL")
	waitreadyCmd.Flags().DurationVar(&waitTimeout, "timeout", 10*time.Minute, "等待超时")
	waitreadyCmd.Flags().DurationVar(&waitEvery, "interval", 2*time.Second, "探测间隔")
	rootCmd.AddCommand(waitreadyCmd)
}

func waitReady(ctx context.Context, client *http.Client, url string, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waitready 超时：%s", url)
		case <-t.C:
		}
	}
}
