package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/statserve/statserve/app"
	"github.com/statserve/statserve/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Start the server and block until it is signaled to stop.

The listen address comes from --addr, or the ADDR/PORT environment
variables, defaulting to 127.0.0.1:8080.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) {
	cfg := config.New()
	if err := cfg.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error in environment: %v\n", err)
		os.Exit(1)
	}

	// Flags beat environment when given explicitly.
	if cmd.Flags().Changed("addr") {
		cfg.Addr, _ = cmd.Flags().GetString("addr")
	}
	if cmd.Flags().Changed("env") {
		cfg.Env, _ = cmd.Flags().GetString("env")
	}
	if cmd.Flags().Changed("max-connections") {
		cfg.MaxConnections, _ = cmd.Flags().GetInt("max-connections")
	}
	if cmd.Flags().Changed("idle-timeout") {
		cfg.IdleTimeout, _ = cmd.Flags().GetDuration("idle-timeout")
	}

	if err := app.New(cfg).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Server startup failed: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().String("env", "development", "environment (development/production)")
	serveCmd.Flags().Int("max-connections", 4096, "maximum concurrent connections")
	serveCmd.Flags().Duration("idle-timeout", 60*time.Second, "keep-alive idle timeout")
}
