package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/roessland/fitbridge/bridge"
	"github.com/roessland/fitbridge/plugin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	jsonMode bool
)

var rootCmd = &cobra.Command{
	Use:   "fitbridge",
	Short: "Read Google Fit history from the command line or over HTTP",
	Long: `Fitbridge connects to Google Fit and reads step counts, weight measurements and
activity segments. The same plugin methods are available as commands and through
an HTTP bridge for app shells.`,
	SilenceUsage: true,
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Sign in to Google Fit and grant read permissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMethod(cmd, "connectToGoogleFit", nil)
	},
}

var allowedCmd = &cobra.Command{
	Use:   "allowed",
	Short: "Check whether the signed-in account has granted all permissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMethod(cmd, "isAllowed", nil)
	},
}

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "Show step counts bucketed by time",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRead(cmd, "getSteps", true)
	},
}

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Show weight measurements",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRead(cmd, "getWeight", false)
	},
}

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "Show activity segments with calories expended",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRead(cmd, "getActivities", true)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the plugin methods over HTTP",
	Long: `Serve exposes the plugin as POST /plugins/GoogleFit/{method} with a JSON object
of call options, plus /healthz and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupApp(cmd.Context(), appConfig())
		if err != nil {
			return err
		}

		addr := getConfigValue(mustString(cmd, "listen"), "listen_addr")
		server := bridge.NewServer(plugin.Name, a.plugin, a.ol.Component("bridge"))
		a.presentation.ShowStatus("Serving %s plugin on http://%s", plugin.Name, addr)
		return server.ListenAndServe(cmd.Context(), addr)
	},
}

// appConfig gathers configuration from flags and viper
func appConfig() AppConfig {
	return AppConfig{
		ClientID:     viper.GetString("google_client_id"),
		ClientSecret: viper.GetString("google_client_secret"),
		AccountPath:  viper.GetString("account_path"),
		Timezone:     viper.GetString("timezone"),
		JSONMode:     jsonMode,
	}
}

func runMethod(cmd *cobra.Command, method string, options map[string]any) error {
	a, err := setupApp(cmd.Context(), appConfig())
	if err != nil {
		return err
	}
	return a.invoke(cmd.Context(), method, options)
}

func runRead(cmd *cobra.Command, method string, bucketed bool) error {
	a, err := setupApp(cmd.Context(), appConfig())
	if err != nil {
		return err
	}

	flags := rangeFlags{
		start: mustString(cmd, "start"),
		end:   mustString(cmd, "end"),
		since: mustString(cmd, "since"),
		until: mustString(cmd, "until"),
	}
	start, end, err := resolveRange(flags, time.Now(), a.loc)
	if err != nil {
		a.presentation.ShowError(err, "Invalid time range")
		return err
	}

	options := map[string]any{
		"startTime": start,
		"endTime":   end,
	}
	if bucketed {
		options["timeUnit"] = mustString(cmd, "time-unit")
		bucketSize, _ := cmd.Flags().GetInt("bucket-size")
		options["bucketSize"] = bucketSize
	}

	a.ol.Header("%s from %s to %s", method, start, end)
	return a.invoke(cmd.Context(), method, options)
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

// getConfigValue returns the flag value if non-empty, otherwise returns the viper config value
func getConfigValue(flagValue, viperKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString(viperKey)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func addRangeFlags(cmd *cobra.Command, bucketed bool) {
	cmd.Flags().String("start", "", "Range start as a timestamp, e.g. 2024-03-01T00:00:00.000+01:00")
	cmd.Flags().String("end", "", "Range end as a timestamp")
	cmd.Flags().String("since", "7d", "Range start as a date or a duration before --until (e.g. '2024-03-01', '30d', '2w')")
	cmd.Flags().String("until", "", "Range end as a date, inclusive (default: now)")
	if bucketed {
		cmd.Flags().String("time-unit", "HOURS", "Bucket unit: NANOSECONDS, MICROSECONDS, MILLISECONDS, SECONDS, MINUTES, HOURS or DAYS")
		cmd.Flags().Int("bucket-size", 1, "Bucket size in --time-unit")
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Viper defaults
	viper.SetDefault("account_path", "~/.fitbridge/account.json")
	viper.SetDefault("listen_addr", "127.0.0.1:8765")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fitbridge/fitbridge.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonMode, "json", false, "Output structured JSON instead of interactive mode")
	rootCmd.PersistentFlags().String("account-path", "", "Path to the signed-in account file (default: ~/.fitbridge/account.json)")
	rootCmd.PersistentFlags().String("timezone", "", "Time zone returned timestamps are rendered in (default: local)")
	viper.BindPFlag("account_path", rootCmd.PersistentFlags().Lookup("account-path"))
	viper.BindPFlag("timezone", rootCmd.PersistentFlags().Lookup("timezone"))

	addRangeFlags(stepsCmd, true)
	addRangeFlags(weightCmd, false)
	addRangeFlags(activitiesCmd, true)
	serveCmd.Flags().String("listen", "", "Address to listen on (default: 127.0.0.1:8765)")

	// Bind environment variables
	viper.BindEnv("google_client_id", "FB_GOOGLE_CLIENT_ID")
	viper.BindEnv("google_client_secret", "FB_GOOGLE_CLIENT_SECRET")
	viper.BindEnv("account_path", "FB_ACCOUNT_PATH")
	viper.BindEnv("listen_addr", "FB_LISTEN_ADDR")
	viper.BindEnv("timezone", "FB_TIMEZONE")

	rootCmd.AddCommand(connectCmd, allowedCmd, stepsCmd, weightCmd, activitiesCmd, serveCmd)
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in ~/.fitbridge/ directory with name "fitbridge" (without extension).
		viper.AddConfigPath(filepath.Join(home, ".fitbridge"))
		viper.SetConfigName("fitbridge")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in silently (logging is via LOG_LEVEL env var)
	viper.ReadInConfig()
}
