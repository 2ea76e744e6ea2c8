package main

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/smarthr/internal/app"
	"github.com/okian/smarthr/internal/config"
	"github.com/okian/smarthr/internal/smoke"
	"github.com/okian/smarthr/pkg/logger"
)

// Smoke defaults.
const (
	defaultSmokeEmployees = 20
	defaultSmokeTimeout   = 30 * time.Second
	defaultSmokeDeadline  = 5 * time.Minute
)

func newMigrateCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the SQL schema of the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logger.Get()
			if st.cfg.StoreDriver == config.DriverMemory {
				log.Info(ctx, "memory store has no schema; nothing to migrate")
				return nil
			}
			store, err := service.OpenStore(ctx, st.cfg.StoreDriver, st.cfg.StoreDSN)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info(ctx, "schema up to date", logger.String("driver", st.cfg.StoreDriver))
			return store.Close()
		},
	}
}

func newScoreCmd(st *cliState) *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:   "score <employee-id>",
		Short: "Compute and store one employee's attrition risk and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeGen, err := buildService(ctx, st.cfg, logger.Get())
			if err != nil {
				return err
			}
			defer func() { _ = closeGen() }()
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = svc.Stop(context.WithoutCancel(ctx)) }()

			out := map[string]any{}
			res, err := svc.GenerateAttritionRisk(ctx, args[0])
			if err != nil {
				return err
			}
			out["risk"] = res
			if explain {
				ex, err := svc.ExplainAttritionRisk(ctx, args[0])
				if err != nil {
					return err
				}
				out["explanation"] = ex
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "Also generate a narrative explanation")
	return cmd
}

func newSmokeCmd() *cobra.Command {
	cfg := &smoke.Config{}
	var deadline time.Duration
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run a scripted round trip against a running server",
		Long: `smoke seeds a throwaway department, records signals, runs every HR
action and narrative, verifies the ranked attrition list, then removes the
seeded employees unless --keep is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), deadline)
			defer cancel()
			_, err := smoke.Run(ctx, cfg)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:4004", "Base URL of the service")
	f.IntVar(&cfg.Employees, "employees", defaultSmokeEmployees, "Number of employees to seed")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "Number of concurrent workers")
	f.DurationVar(&cfg.Timeout, "timeout", defaultSmokeTimeout, "HTTP request timeout")
	f.StringVar(&cfg.Department, "department", "", "Department to seed (default: generated)")
	f.BoolVar(&cfg.Keep, "keep", false, "Keep seeded employees")
	f.DurationVar(&deadline, "deadline", defaultSmokeDeadline, "Overall run deadline")
	return cmd
}
