package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cinedex/cinedex/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cinedex",
	Short: "Builds a compact movie/series title dataset from TMDB.",
	Long: `cinedex incrementally reconciles TMDB's daily bulk id exports against a
locally persisted enriched dataset, fetching details only for ids it has
never seen, so a downstream reader can resolve year and popularity for
hundreds of thousands of titles without live API calls.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cinedex.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("datadir", "d", "", "Data directory for artifacts and the run ledger (default: ~/.config/cinedex)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A local .env is handy for the access token during development.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".cinedex")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	_ = viper.BindEnv("tmdb.token", "TMDB_ACCESS_TOKEN")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.cinedex.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("tmdb.token", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// resolveDataDir picks the data directory from the flag or the default
// location, creating it if needed.
func resolveDataDir(cmd *cobra.Command) (string, error) {
	dataDir, _ := cmd.Flags().GetString("datadir")
	if dataDir == "" {
		var err error
		dataDir, err = utils.DefaultDataDir()
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	return dataDir, nil
}
