// stockfusion fuses A-share market data from several upstream providers and
// reconciles it into quarterly, TTM and daily valuation series.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/stockfusion/internal/config"
	"github.com/seenimoa/stockfusion/internal/datasource"
	"github.com/seenimoa/stockfusion/internal/engine"
	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/internal/providers"
	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger
var (
	cfg    *config.Config
	logger zerolog.Logger
)

const pingTimeout = 10 * time.Second

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stockfusion",
	Short: "A-share market data fusion and reconciliation",
	Long: `stockfusion fetches company, financial statement, price, dividend,
northbound, shareholder and industry data for one A-share security from
several upstream providers, falling back between them per category, and
reconciles the statements into single-quarter, TTM and daily valuation series.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		logger = infra.NewLogger(infra.LogConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(valuationCmd)
	rootCmd.AddCommand(industryCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(statusCmd)
}

// app is the wired fetch stack for one command invocation.
type app struct {
	reg        *provider.Registry
	registered *providers.Registered
	orch       *datasource.Orchestrator
}

func newApp() (*app, error) {
	reg := provider.NewRegistry()
	registered, err := providers.RegisterAll(reg, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("register providers: %w", err)
	}

	orch := datasource.NewOrchestrator(reg, datasource.Options{
		MaxWorkers: cfg.Fetch.MaxWorkers,
		KlineYears: cfg.Fetch.KlineYears,
		Retry: infra.RetryPolicy{
			MaxAttempts:   cfg.Fetch.Retry.MaxAttempts,
			BaseDelay:     cfg.Fetch.Retry.BaseDelay,
			BackoffFactor: cfg.Fetch.Retry.BackoffFactor,
		},
		ConstituentTTL: cfg.Industry.CacheTTL,
	}, logger)

	return &app{reg: reg, registered: registered, orch: orch}, nil
}

func (a *app) Close() { a.registered.Shutdown() }

// withApp runs fn against a freshly wired stack and shuts it down after.
func withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(context.Background(), a)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stockfusion %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [code]",
	Short: "Fetch and reconcile everything about a security",
	Long: `Fetch every data category of a security and reconcile its statements.

Examples:
  stockfusion analyze 600519
  stockfusion analyze sz000858 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withApp(func(ctx context.Context, a *app) error {
			report, err := engine.New(a.orch, logger).Analyze(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(os.Stdout, report)
			return nil
		})
	},
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "print the full report as JSON")
}

// --- Valuation Command ---

var valuationCmd = &cobra.Command{
	Use:   "valuation [code]",
	Short: "Show the current valuation snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := utils.NormalizeCode(args[0])
		if err != nil {
			return fmt.Errorf("%w: %w", datasource.ErrUnresolvableIdentifier, err)
		}
		return withApp(func(ctx context.Context, a *app) error {
			cats := a.orch.Categories()
			profile := cats.Profile(ctx, code)
			val := cats.Valuation(ctx, code, provider.Absent[[]models.PriceBar](), profile.Value.TotalShares)

			fmt.Printf("%s %s\n", profile.Value.Code, profile.Value.Name)
			printValuation(os.Stdout, val.Value)
			return nil
		})
	},
}

// --- Industry Command ---

var industryCmd = &cobra.Command{
	Use:   "industry [code]",
	Short: "Compare a security with its industry peers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := utils.NormalizeCode(args[0])
		if err != nil {
			return fmt.Errorf("%w: %w", datasource.ErrUnresolvableIdentifier, err)
		}
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(func(ctx context.Context, a *app) error {
			cats := a.orch.Categories()
			profile := cats.Profile(ctx, code)
			res := cats.Industry(ctx, code, profile.Value.Industry)
			if !res.Present {
				return fmt.Errorf("industry of %s: %w", code, res.Err())
			}
			printIndustry(os.Stdout, res.Value, limit)
			return nil
		})
	},
}

func init() {
	industryCmd.Flags().Int("limit", 20, "number of peers to list")
}

// --- Providers Command ---

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered providers and the categories they serve",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			for _, info := range a.reg.List() {
				kind := "stateless"
				if info.Stateful {
					kind = "session"
				}
				fmt.Printf("  %-10s %-9s %s\n", info.Name, kind, info.Description)
			}
			fmt.Println()
			for _, model := range provider.AllModels() {
				names := a.reg.ProvidersFor(model)
				if len(names) == 0 {
					continue
				}
				fmt.Printf("  %-20s %v\n", model, names)
			}
			return nil
		})
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Ping every provider and show configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			fmt.Println("═══════════════════════════════════════")
			fmt.Println("  stockfusion — System Status")
			fmt.Println("═══════════════════════════════════════")
			fmt.Printf("  Version:     %s (%s)\n", version, commit)
			fmt.Printf("  Time (CST):  %s\n", utils.NowCST().Format("2006-01-02 15:04:05"))
			fmt.Printf("  Workers:     %d\n", cfg.Fetch.MaxWorkers)
			fmt.Printf("  Retry:       %d attempts, base %s ×%g\n",
				cfg.Fetch.Retry.MaxAttempts, cfg.Fetch.Retry.BaseDelay, cfg.Fetch.Retry.BackoffFactor)
			fmt.Println()

			fmt.Println("  Credentials:")
			for _, c := range config.CheckCredentials(cfg) {
				fmt.Printf("    %-20s %s (%s)\n", c.Name+":", c.Masked, c.Source)
			}
			fmt.Println()

			fmt.Println("  Providers:")
			for _, info := range a.reg.List() {
				p, err := a.reg.Get(info.Name)
				if err != nil {
					return err
				}
				pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
				start := time.Now()
				err = p.Ping(pingCtx)
				cancel()

				status := fmt.Sprintf("ok (%s)", time.Since(start).Round(time.Millisecond))
				if err != nil {
					status = "unreachable: " + err.Error()
				}
				fmt.Printf("    %-12s %s\n", info.Name+":", status)
			}
			fmt.Println("═══════════════════════════════════════")
			return nil
		})
	},
}
