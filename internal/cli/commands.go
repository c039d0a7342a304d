// Package cli is the command surface: run starts the control loop, init
// writes a starter configuration interactively, config inspects the resolved
// settings.
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tradepulse/tradepulse/internal/config"
)

const defaultConfigPath = "tradepulse.json"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tradepulse",
		Short: "TradePulse - automated intraday trading loop",
		Long: `TradePulse keeps per-provider market data in sync, applies stop loss,
take profit and exposure rules against the brokerage account, and turns
strategy signals into orders, once per bar while the market is open.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringP("config", "c", defaultConfigPath, "Configuration file path")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the trading loop until the market closes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log, err := newLogger(cfg.Debug)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			a, err := buildApp(cfg, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runErr := a.engine.Run(ctx)

			fmt.Print(a.stats.Render())
			if cfg.StatsCSVPath != "" {
				if err := writeStatsCSV(a, cfg.StatsCSVPath); err != nil {
					fmt.Fprintf(os.Stderr, "write stats: %v\n", err)
				}
			}

			return runErr
		},
	}
}

func writeStatsCSV(a *app, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return a.stats.WriteCSV(f)
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")

			cfg, err := promptForConfig()
			if err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}

			fmt.Printf("Configuration written to %s\n", path)
			fmt.Println("Set provider and broker API keys in the environment or a .env file.")
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			showConfig(cfg)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Println("Configuration is valid.")
			return nil
		},
	})

	return configCmd
}

func showConfig(cfg *config.Config) {
	fmt.Println("TradePulse configuration")
	fmt.Println("========================")
	fmt.Printf("Tickers:              %v\n", cfg.Tickers)
	fmt.Printf("Venue:                %s\n", cfg.Venue)
	fmt.Printf("Providers:            %v\n", cfg.Providers)
	fmt.Printf("Primary provider:     %s\n", cfg.PrimaryProvider)
	fmt.Printf("Strategy:             %s\n", cfg.Strategy)
	fmt.Printf("Broker:               %s\n", cfg.Broker)
	fmt.Println()
	fmt.Printf("Historical frequency: %s\n", cfg.HistoricalFrequency)
	fmt.Printf("Historical horizon:   %s\n", cfg.HistoricalHorizon)
	fmt.Printf("Intraday interval:    %s\n", cfg.IntradayInterval)
	fmt.Println()
	fmt.Printf("Stop loss:            %s\n", cfg.StopLossFraction)
	fmt.Printf("Take profit:          %s\n", cfg.TakeProfitFraction)
	fmt.Printf("Max exposure:         %s\n", cfg.MaxExposure)
	fmt.Printf("Sizing notional:      %s\n", cfg.PositionSizingNotional)
	fmt.Printf("Order type:           %s\n", cfg.OrderType)
	fmt.Println()
	fmt.Printf("Cache enabled:        %t\n", cfg.CacheEnabled)
	fmt.Printf("Debug:                %t\n", cfg.Debug)
	fmt.Println()

	fmt.Println("API keys")
	fmt.Println("--------")
	printKeyStatus("Twelve Data", cfg.TwelveDataAPIKey != "")
	printKeyStatus("Alpha Vantage", cfg.AlphaVantageAPIKey != "")
	printKeyStatus("Longport", cfg.LongportAppKey != "" && cfg.LongportAppSecret != "" && cfg.LongportAccessToken != "")
}

func printKeyStatus(name string, configured bool) {
	status := "not configured"
	if configured {
		status = "configured"
	}
	fmt.Printf("%-16s %s\n", name+":", status)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("TradePulse v1.0.0")
		},
	}
}
