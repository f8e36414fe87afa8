package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/dhima/version-watch/internal/models"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one version check and print the result as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			checkCtx, cancel := context.WithTimeout(ctx, a.cfg.CheckTimeout)
			defer cancel()
			result := a.executor.RunCheck(checkCtx, models.CheckSourceManual)
			if a.publisher != nil {
				if err := a.publisher.Publish(ctx, result); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
