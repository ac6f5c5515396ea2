// hapticctl drives the trackpad haptic actuator directly, without a running
// hapticd. It shares the daemon's configuration file.
//
// Examples:
//
//	hapticctl discover
//	hapticctl actuate --pattern strong
//	hapticctl actuate --pattern 15 --count 3 --interval 250ms --record
//	hapticctl history --limit 20 --json
//	hapticctl auth hash-secret --secret "..."
//	hapticctl auth token --client scene-engine
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "hapticctl",
		Short:         "Control the trackpad haptic actuator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Path to config file (default $GRAYLOGIC_CONFIG or "+defaultConfigPath+")")
	root.PersistentFlags().Bool("json", false, "Output JSON")

	root.AddCommand(
		newActuateCommand(),
		newDiscoverCommand(),
		newPatternsCommand(),
		newHistoryCommand(),
		newAuthCommand(),
		newVersionCommand(),
	)
	return root
}

// loadConfig resolves the config path from --config, GRAYLOGIC_CONFIG or
// the default, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("GRAYLOGIC_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger writes the configured log format to stderr so stdout stays
// parseable.
func newLogger(cmd *cobra.Command, cfg *config.Config) *logging.Logger {
	return logging.NewWithWriter(cfg.Logging, version, cmd.ErrOrStderr())
}

// outputFormatter prints either JSON or human-readable text.
type outputFormatter struct {
	w        io.Writer
	jsonMode bool
}

func newOutputFormatter(cmd *cobra.Command) *outputFormatter {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &outputFormatter{w: cmd.OutOrStdout(), jsonMode: jsonMode}
}

// printJSON writes data as indented JSON.
func (f *outputFormatter) printJSON(data any) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(f.w, string(out))
	return err
}

func (f *outputFormatter) printf(format string, args ...any) {
	fmt.Fprintf(f.w, format, args...)
}
