package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
	"github.com/nerrad567/gray-logic-haptics/internal/haptic"
	"github.com/nerrad567/gray-logic-haptics/internal/history"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-haptics/migrations"
)

const maxCount = 100

type actuateOutput struct {
	Results []haptic.Result `json:"results"`
	Error   string          `json:"error,omitempty"`
}

func newActuateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actuate",
		Short: "Fire the haptic actuator",
		Long: `Fire the haptic actuator once or several times.

The actuator is opened on the first actuation, reused for the rest and
always closed before the command exits. A failed close is reported and
makes the command exit non-zero.`,
		Args: cobra.NoArgs,
		RunE: runActuate,
	}
	cmd.Flags().String("pattern", "", "Pattern name or id (default from config)")
	cmd.Flags().Uint32("flags", 0, "Driver flags, passed through")
	cmd.Flags().Float32("param1", 0, "First driver parameter, passed through")
	cmd.Flags().Float32("param2", 0, "Second driver parameter, passed through")
	cmd.Flags().Int("count", 1, "Number of actuations")
	cmd.Flags().Duration("interval", 100*time.Millisecond, "Pause between actuations")
	cmd.Flags().Bool("record", false, "Record actuations in the history database")
	return cmd
}

func runActuate(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	command, count, interval, err := actuateCommandFromFlags(cmd, cfg)
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)
	ctx := cmd.Context()

	opts := haptic.Options{Logger: log}
	if record, _ := cmd.Flags().GetBool("record"); record {
		db, repo, err := openHistory(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.History = repo
	}

	backend, err := haptic.OpenBackend(cfg.Haptics)
	if err != nil {
		return fmt.Errorf("opening backend: %w", err)
	}
	controller := haptic.NewController(backend.NewSession(cfg.Haptics, log), opts)
	defer func() {
		if closeErr := controller.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("closing actuator: %w", closeErr))
		}
	}()

	results, actErr := actuateN(ctx, controller, command, count, interval)

	out := newOutputFormatter(cmd)
	if out.jsonMode {
		o := actuateOutput{Results: results}
		if actErr != nil {
			o.Error = actErr.Error()
		}
		if err := out.printJSON(o); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			status := "ok"
			if !r.Success {
				status = "failed"
			}
			out.printf("%s pattern=%d device=%s attempts=%d duration=%s\n",
				status, r.Pattern, r.DeviceID, r.Attempts, r.Duration.Round(time.Microsecond))
		}
	}
	return actErr
}

func actuateCommandFromFlags(cmd *cobra.Command, cfg *config.Config) (haptic.Command, int, time.Duration, error) {
	c := haptic.Command{
		Pattern: actuator.ActuationID(cfg.Haptics.DefaultPattern),
		Source:  haptic.SourceCLI,
	}
	if raw, _ := cmd.Flags().GetString("pattern"); raw != "" {
		id, err := parsePattern(raw)
		if err != nil {
			return c, 0, 0, err
		}
		c.Pattern = id
	}
	c.Flags, _ = cmd.Flags().GetUint32("flags")
	c.Param1, _ = cmd.Flags().GetFloat32("param1")
	c.Param2, _ = cmd.Flags().GetFloat32("param2")

	count, _ := cmd.Flags().GetInt("count")
	if count < 1 || count > maxCount {
		return c, 0, 0, fmt.Errorf("--count must be between 1 and %d", maxCount)
	}
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval < 0 {
		return c, 0, 0, errors.New("--interval must not be negative")
	}
	return c, count, interval, nil
}

// actuateN stops at the first failure or when ctx is cancelled.
func actuateN(ctx context.Context, c *haptic.Controller, cmd haptic.Command, count int, interval time.Duration) ([]haptic.Result, error) {
	results := make([]haptic.Result, 0, count)
	for i := 0; i < count; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(interval):
			}
		}
		res, err := c.Actuate(ctx, cmd)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// openHistory opens and migrates the configured database.
func openHistory(ctx context.Context, cfg *config.Config) (*database.DB, *history.SQLiteRepository, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, history.NewSQLiteRepository(db.DB), nil
}
