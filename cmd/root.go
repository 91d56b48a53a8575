package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/govscope/govscope/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	  __ _  _____   _____  ___ ___  _ __   ___
	 / _` + "`" + ` |/ _ \ \ / / __|/ __/ _ \| '_ \ / _ \
	| (_| | (_) \ V /\__ \ (_| (_) | |_) |  __/
	 \__, |\___/ \_/ |___/\___\___/| .__/ \___|
	 |___/                         |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "govscope",
	Short: "Governance scoring for your API platform organization.",
	Long: LOGO + `govscope harvests workspaces, collections, monitors and users from your
API platform, computes weighted governance scores and flags policy
violations for remediation.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("loglevel")
		utils.SetLogLevel(level)
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
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.govscope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".govscope")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("govscope")
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.govscope.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("api.base_url", "https://api.getpostman.com")
	viper.SetDefault("api.key", "")
	viper.SetDefault("api.requests_per_minute", 60)
	viper.SetDefault("api.timeout_seconds", 30)
	viper.SetDefault("api.max_retries", 3)
	viper.SetDefault("harvest.workspace_cap", -1)
	viper.SetDefault("harvest.collection_cap", -1)
	viper.SetDefault("harvest.fetch_tags", true)
	viper.SetDefault("harvest.include_private_network", false)
	viper.SetDefault("scoring.weights.documentation", 0.3)
	viper.SetDefault("scoring.weights.testing", 0.3)
	viper.SetDefault("scoring.weights.monitoring", 0.2)
	viper.SetDefault("scoring.weights.organization", 0.2)
	viper.SetDefault("scoring.min_documentation_coverage", 80)
	viper.SetDefault("scoring.min_test_coverage", 60)
	viper.SetDefault("dbpath", "govscope.sqlite")
}
