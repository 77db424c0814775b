package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "matchctl"
)

// Config is the file/flag configuration of matchctl
type Config struct {
	MinScore      float64 `mapstructure:"min-score"`
	Limit         int     `mapstructure:"limit"`
	DistanceMode  string  `mapstructure:"distance-mode"`
	FallbackMiles float64 `mapstructure:"fallback-miles"`
	Seed          int64   `mapstructure:"seed"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "matchctl ranks open shifts for a care worker from JSON files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		log.Error().Err(err).Msg(app + " failed")
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is matchctl.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")

	viper.SetDefault("min-score", 60.0)
	viper.SetDefault("limit", 10)
	viper.SetDefault("distance-mode", "geo")
	viper.SetDefault("fallback-miles", 25.0)

	viper.SetEnvPrefix("MATCHCTL")
	viper.AutomaticEnv()

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if viper.GetBool("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicit --config must exist, the default file is optional
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal().Err(err).Msg("reading config")
		}
		return
	}
	log.Debug().Str("file", viper.ConfigFileUsed()).Msg("config loaded")
}

func getConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &config, nil
}
