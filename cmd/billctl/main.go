package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "billctl",
		Short: "Import, review and export bills from the terminal",
		Long: `billctl turns pasted bill text (bank statements, emails, notes) into bills,
lets you pick which ones to keep, and exports what you have.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/billctl/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("user", "", "user id the bills belong to")
	rootCmd.PersistentFlags().String("db-driver", "", "storage driver (postgres, sqlite, memory)")
	rootCmd.PersistentFlags().String("sqlite-path", "", "sqlite database file")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	_ = viper.BindPFlag("database.driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	_ = viper.BindPFlag("database.sqlite_path", rootCmd.PersistentFlags().Lookup("sqlite-path"))

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(inboxCmd())
	rootCmd.AddCommand(billsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(healthCmd())
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath(fmt.Sprintf("%s/.config/billctl", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BILLS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger, err := common.NewLogger(os.Stderr, common.LogConfig{
		Level:  viper.GetString("logging.level"),
		Format: viper.GetString("logging.format"),
	})
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.SetDefault(logger)
	return nil
}

// loadConfig starts from the service environment and applies config file, BILLS_* env and
// flag overrides on top.
func loadConfig() *common.Config {
	cfg := common.LoadConfig()
	cfg.Log.Level = viper.GetString("logging.level")
	cfg.Log.Format = viper.GetString("logging.format")

	overrides := []struct {
		key string
		dst *string
	}{
		{"database.driver", &cfg.Database.Driver},
		{"database.url", &cfg.Database.DSN},
		{"database.sqlite_path", &cfg.Database.SQLitePath},
		{"llm.provider", &cfg.LLM.Provider},
		{"llm.model", &cfg.LLM.Model},
		{"llm.api_key", &cfg.LLM.APIKey},
		{"llm.base_url", &cfg.LLM.BaseURL},
		{"llm.gemini_api_key", &cfg.LLM.GeminiAPIKey},
		{"import.policy", &cfg.Import.Policy},
		{"sheets.credentials_file", &cfg.Export.SheetsCredentialsFile},
		{"sheets.spreadsheet_id", &cfg.Export.SpreadsheetID},
	}
	for _, o := range overrides {
		if v := viper.GetString(o.key); v != "" {
			*o.dst = v
		}
	}
	if cats := viper.GetStringSlice("import.categories"); len(cats) > 0 {
		cfg.Import.Categories = cats
	}
	return cfg
}

// userContext attaches the --user id, which every bill operation requires.
func userContext(ctx context.Context) (context.Context, error) {
	userID := strings.TrimSpace(viper.GetString("user"))
	if userID == "" {
		return nil, &common.AuthRequiredError{}
	}
	return common.WithUserID(ctx, userID), nil
}
