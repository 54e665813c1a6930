// Package cli implements schedulectl, the operator command line for the
// payment scheduler.
//
//	schedulectl preview --scheduled-for 2025-01-31 --pattern monthly --max 6
//	schedulectl preview -f schedule.yaml
//	schedulectl sweep --batch 200
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vendor-payment-scheduler/internal/config"
	"github.com/vendor-payment-scheduler/internal/data/postgres"
	"github.com/vendor-payment-scheduler/internal/domain/schedule"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
	"github.com/vendor-payment-scheduler/internal/logger"
	"github.com/vendor-payment-scheduler/internal/platform/persistence"
	"github.com/vendor-payment-scheduler/internal/schedule_executor/components"
	"github.com/vendor-payment-scheduler/internal/schedule_executor/service"
	"github.com/vendor-payment-scheduler/internal/schedule_executor/sweeper"
	"gopkg.in/yaml.v3"
)

// PreviewFile is the YAML document accepted by preview --file
type PreviewFile struct {
	ScheduledFor string `yaml:"scheduled_for"`
	Pattern      string `yaml:"recurrence_pattern"`
	EndType      string `yaml:"recurrence_end_type"`
	EndAfter     int    `yaml:"recurrence_end_after"`
	EndDate      string `yaml:"recurrence_end_date"`
	MaxResults   int    `yaml:"max_results"`
	Amount       string `yaml:"amount"` // Decimal major units, e.g. "125.50"
	Currency     string `yaml:"currency"`
}

func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "schedulectl",
		Short:        "Operate the vendor payment scheduler",
		Version:      "1.0.0",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(buildPreviewCommand())
	rootCmd.AddCommand(buildSweepCommand())

	return rootCmd
}

func buildPreviewCommand() *cobra.Command {
	var (
		file string
		opts PreviewFile
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Project the occurrence dates of a recurrence",
		Long: `Projects occurrence dates without touching any store.
Parameters come from flags or from a YAML file; flags set explicitly
override values read from the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := opts
			if file != "" {
				loaded, err := loadPreviewFile(file)
				if err != nil {
					return err
				}
				params = mergePreviewFlags(cmd, loaded, opts)
			}
			return runPreview(cmd.OutOrStdout(), params)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file describing the recurrence")
	cmd.Flags().StringVar(&opts.ScheduledFor, "scheduled-for", "", "First occurrence date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Pattern, "pattern", "", "Recurrence pattern: weekly, monthly, quarterly, yearly")
	cmd.Flags().StringVar(&opts.EndType, "end-type", string(schedule.EndTypeNever), "End condition: after, on, never")
	cmd.Flags().IntVar(&opts.EndAfter, "end-after", 0, "Number of occurrences when --end-type=after")
	cmd.Flags().StringVar(&opts.EndDate, "end-date", "", "Last possible date (YYYY-MM-DD) when --end-type=on")
	cmd.Flags().IntVar(&opts.MaxResults, "max", schedule.DefaultPreviewResults, "Maximum number of dates to print")
	cmd.Flags().StringVar(&opts.Amount, "amount", "", "Amount per occurrence in major units, e.g. 125.50")
	cmd.Flags().StringVar(&opts.Currency, "currency", "USD", "ISO 4217 currency code")

	return cmd
}

func loadPreviewFile(path string) (PreviewFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PreviewFile{}, fmt.Errorf("failed to read preview file: %w", err)
	}

	pf := PreviewFile{
		EndType:    string(schedule.EndTypeNever),
		MaxResults: schedule.DefaultPreviewResults,
		Currency:   "USD",
	}
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return PreviewFile{}, fmt.Errorf("failed to parse preview file: %w", err)
	}
	return pf, nil
}

// mergePreviewFlags overlays the flags the user set on top of the file values
func mergePreviewFlags(cmd *cobra.Command, pf, flags PreviewFile) PreviewFile {
	changed := cmd.Flags().Changed
	if changed("scheduled-for") {
		pf.ScheduledFor = flags.ScheduledFor
	}
	if changed("pattern") {
		pf.Pattern = flags.Pattern
	}
	if changed("end-type") {
		pf.EndType = flags.EndType
	}
	if changed("end-after") {
		pf.EndAfter = flags.EndAfter
	}
	if changed("end-date") {
		pf.EndDate = flags.EndDate
	}
	if changed("max") {
		pf.MaxResults = flags.MaxResults
	}
	if changed("amount") {
		pf.Amount = flags.Amount
	}
	if changed("currency") {
		pf.Currency = flags.Currency
	}
	return pf
}

func (p PreviewFile) recurrence() (schedule.Recurrence, error) {
	scheduledFor, err := time.Parse(time.DateOnly, p.ScheduledFor)
	if err != nil {
		return schedule.Recurrence{}, schedule.ValidationError{Field: "scheduled_for", Reason: "must be a date in YYYY-MM-DD format"}
	}

	r := schedule.Recurrence{
		ScheduledFor: scheduledFor,
		IsRecurring:  true,
		Pattern:      schedule.Pattern(strings.ToLower(p.Pattern)),
		EndType:      schedule.EndType(strings.ToLower(p.EndType)),
		EndAfter:     p.EndAfter,
	}
	if p.EndDate != "" {
		endDate, err := time.Parse(time.DateOnly, p.EndDate)
		if err != nil {
			return schedule.Recurrence{}, schedule.ValidationError{Field: "recurrence_end_date", Reason: "must be a date in YYYY-MM-DD format"}
		}
		r.EndDate = &endDate
	}
	if err := r.Validate(); err != nil {
		return schedule.Recurrence{}, err
	}
	return r, nil
}

func runPreview(out io.Writer, pf PreviewFile) error {
	r, err := pf.recurrence()
	if err != nil {
		return err
	}

	currency := strings.ToUpper(pf.Currency)
	var amount int64
	if pf.Amount != "" {
		amount, err = shared.ParseAmount(pf.Amount, currency)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", pf.Amount, err)
		}
	}

	dates := schedule.ProjectOccurrences(r, pf.MaxResults)
	for i, d := range dates {
		if amount > 0 {
			fmt.Fprintf(out, "%3d  %s  %s %s\n", i+1, d.Format(time.DateOnly), shared.FormatAmount(amount, currency), currency)
			continue
		}
		fmt.Fprintf(out, "%3d  %s\n", i+1, d.Format(time.DateOnly))
	}

	if n, ok := schedule.EstimateOccurrenceCount(r); ok {
		fmt.Fprintf(out, "Estimated occurrences: %d\n", n)
	} else {
		fmt.Fprintln(out, "Estimated occurrences: open-ended")
	}
	if amount > 0 {
		fmt.Fprintf(out, "Total of listed payments: %s %s\n", shared.FormatAmount(amount*int64(len(dates)), currency), currency)
	}
	return nil
}

func buildSweepCommand() *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Execute every due scheduled payment once and exit",
		Long: `Runs a single due-schedule sweep against the configured PostgreSQL
database. Intended for external cron invokers when the executor's built-in
sweep is disabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig("schedule_executor")
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if batch > 0 {
				cfg.Scheduler.SweepBatchSize = batch
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := runSweep(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Due: %d, failed: %d\n", result.Due, result.Failed)
			if result.Failed > 0 {
				return fmt.Errorf("%d of %d executions failed", result.Failed, result.Due)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&batch, "batch", 0, "Maximum schedules to execute, defaults to SCHEDULER_SWEEP_BATCH_SIZE")

	return cmd
}

func runSweep(ctx context.Context, cfg *config.Config) (sweeper.Result, error) {
	log := logger.New(os.Stderr, cfg)

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return sweeper.Result{}, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer postgresDB.Close()

	repos := components.Repositories{
		Schedules: postgres.NewScheduleRepository(log, postgresDB),
		Payments:  postgres.NewPaymentRepository(log, postgresDB),
		Outbox:    postgres.NewOutboxRepository(log, postgresDB),
	}
	manager := components.CreateLifecycleManager(postgresDB, repos, nil, log, cfg)
	executionService := components.CreateExecutionService(manager, log, cfg)
	if wp, ok := executionService.(*service.WorkerPoolExecutionService); ok {
		defer wp.Shutdown()
	}

	loc, err := cfg.Application.Location()
	if err != nil {
		loc = time.UTC
	}
	return sweeper.NewSweeper(&cfg.Scheduler, loc, manager, executionService, nil, log).RunOnce(ctx)
}
