package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/DrSkyle/balanco/pkg/config"
	"github.com/DrSkyle/balanco/pkg/telemetry"
	"github.com/DrSkyle/balanco/pkg/version"
)

var (
	cfgFile  string
	cfg      config.Config
	logger   = telemetry.Discard()
	shutdown telemetry.Shutdown
)

var rootCmd = &cobra.Command{
	Use:   "balanco",
	Short: "BNDES balance-sheet consolidation",
	Long: `balanco - BNDES open-data consolidation

Fetches the balance-sheet resources published for a year, normalizes
their values and stores them as a single Parquet file.`,
	Version:       version.Current,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load(viper.GetViper())
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger = telemetry.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		slog.SetDefault(logger)

		sd, err := telemetry.Init(cmd.Context(), telemetry.Options{
			Endpoint:    cfg.OtelEndpoint,
			ServiceName: cfg.OtelServiceName,
			Runtime:     runtimeOf(cmd),
			DatasetID:   cfg.DatasetID,
			Sink:        string(cfg.SinkMode()),
		})
		if err != nil {
			logger.Warn("Telemetry failed", "error", err)
			return nil
		}
		shutdown = sd
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdown != nil {
			return shutdown(context.Background())
		}
		return nil
	},
}

// Execute runs the root command until it finishes or the process is signaled.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default $HOME/.balanco.yaml)")
	flags.String("bucket", "", "S3 or MinIO bucket (S3_BUCKET_NAME)")
	flags.String("output-dir", "", "Local output directory, overrides the bucket (LOCAL_OUTPUT_DIR)")
	flags.String("prefix", config.DefaultOutputPrefix, "Object key prefix (OUTPUT_PREFIX)")
	flags.String("dataset", config.DefaultDatasetID, "CKAN dataset id (DATASET_ID)")
	flags.String("api-url", config.DefaultAPIURL, "CKAN action API root (BNDES_API_URL)")
	flags.String("region", config.DefaultRegion, "AWS region (AWS_REGION)")
	flags.String("log-level", config.DefaultLogLevel, "debug, info, warn or error (LOG_LEVEL)")
	flags.String("log-format", config.DefaultLogFormat, "json or text (LOG_FORMAT)")
	flags.Bool("strict", false, "Fail when any matching resource could not be fetched (STRICT_MODE)")
	flags.String("policy", config.DefaultNumericPolicy, "Numeric conversion policy: strict or skip (NUMERIC_POLICY)")

	bindFlags(flags, map[string]string{
		"bucket":     config.KeyBucketName,
		"output-dir": config.KeyLocalOutputDir,
		"prefix":     config.KeyOutputPrefix,
		"dataset":    config.KeyDatasetID,
		"api-url":    config.KeyAPIURL,
		"region":     config.KeyAWSRegion,
		"log-level":  config.KeyLogLevel,
		"log-format": config.KeyLogFormat,
		"strict":     config.KeyStrictMode,
		"policy":     config.KeyNumericPolicy,
	})

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	rootCmd.AddCommand(consolidateCmd, fetchCmd, serveCmd, lambdaCmd, listCmd, showCmd, doctorCmd, normalizeCmd)
}

func runtimeOf(cmd *cobra.Command) string {
	switch cmd.Name() {
	case "serve":
		return telemetry.RuntimeHTTP
	case "lambda":
		return telemetry.RuntimeLambda
	}
	return telemetry.RuntimeCLI
}

// bindFlags binds flags to config keys. A flag only wins over the
// environment when it was set explicitly.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

func initConfig() {
	config.Init(viper.GetViper())
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		viper.SetConfigFile(filepath.Join(home, ".balanco.yaml"))
		viper.SetConfigType("yaml")
	}
	// A missing file is fine; defaults and the environment still apply.
	_ = viper.ReadInConfig()
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00A859")).
			MarginBottom(1)
	flagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00A859")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true)
)

func renderHelp(cmd *cobra.Command) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("BALANCO %s", version.Current)))
	if cmd.Long != "" {
		fmt.Println(cmd.Long)
	} else {
		fmt.Println(cmd.Short)
	}
	fmt.Println()

	fmt.Println(titleStyle.Render("USAGE"))
	fmt.Printf("  %s\n\n", cmd.UseLine())

	if cmd.HasAvailableSubCommands() {
		fmt.Println(titleStyle.Render("COMMANDS"))
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() {
				fmt.Printf("  %-12s %s\n", c.Name(), c.Short)
			}
		}
		fmt.Println()

		fmt.Println(titleStyle.Render("EXAMPLES"))
		fmt.Println("  LOCAL_OUTPUT_DIR=./out balanco consolidate 2023")
		fmt.Println("  S3_BUCKET_NAME=my-bucket balanco serve")
		fmt.Println("  balanco normalize \"1,5 milhões\" \"300 mil\"")
		fmt.Println()
	}

	fmt.Println(titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Println(flagStyle.Render(output))
	})
	fmt.Println()
}
