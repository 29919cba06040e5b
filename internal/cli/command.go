package cli

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/transdesk/backend/internal/config"
	"github.com/transdesk/backend/internal/db"
	"github.com/transdesk/backend/internal/provider"
	"github.com/transdesk/backend/internal/translate"
)

// app carries the state shared by all subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// NewRootCommand builds the transdesk command tree. Running it without a
// subcommand starts the server.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "transdesk",
		Short: "Translation management console",
		Long: `transdesk manages translation projects: per-project string tables,
a corpus of pinned translations, and batch translation through an
OpenAI-compatible chat completion API.

Examples:
  transdesk                                   # start the HTTP server
  transdesk user add alice --password secret  # create a console user
  transdesk import --project <id> --file strings.xlsx
  transdesk translate --project <id> --lang ja --corpus
  transdesk export --project <id> --out strings.csv`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./transdesk.yaml)")
	rootCmd.PersistentFlags().String("data-path", "", "data directory (default ./data)")
	rootCmd.PersistentFlags().String("db-path", "", "database file (default <data-path>/transdesk.db)")
	a.v.BindPFlag("data_path", rootCmd.PersistentFlags().Lookup("data-path"))
	a.v.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db-path"))

	rootCmd.AddCommand(
		newServeCommand(a),
		newUserCommand(a),
		newTranslateCommand(a),
		newImportCommand(a),
		newExportCommand(a),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.SetConfigName("transdesk")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home)
		}
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	} else {
		log.Printf("Using config file: %s", a.v.ConfigFileUsed())
	}

	a.cfg = config.Load(a.v)
	return nil
}

// openDB creates the data directory and opens the database.
func (a *app) openDB() (*db.Database, error) {
	if err := os.MkdirAll(a.cfg.DataPath, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	database, err := db.NewSQLite(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return database, nil
}

func (a *app) newService(database *db.Database) *translate.Service {
	return translate.NewService(database, database.Translations(), database.Corpus(), newProvider, a.cfg.Provider)
}

func newProvider(cfg translate.ProviderConfig) translate.Provider {
	return provider.NewOpenAI(cfg.Endpoint, cfg.APIKey, cfg.Model)
}
