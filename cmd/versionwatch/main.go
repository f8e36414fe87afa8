package main

import (
	"fmt"
	"os"

	_ "github.com/dhima/version-watch/docs" // Import generated docs
	"github.com/spf13/cobra"
)

// @title Version Watch API
// @version 1.0
// @description Schedules checks that compare the installed version of a target application with the latest published version.
// @description
// @description ## Features
// @description - **Periodic check**: one 12-hour recurring trigger
// @description - **Fixed-time checks**: up to four daily times of day
// @description - **Result events**: each completed check is published to Kafka or NATS

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

var (
	cfgFile string
	version = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "versionwatch",
		Short:         "Schedule and run installed-versus-latest version checks",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	root.AddCommand(newServeCmd(), newCheckCmd())
	return root
}
