package cmd

import (
	"log"

	"github.com/spigell/sourcerer/internal/batch"
	"github.com/spigell/sourcerer/internal/cache"
	"github.com/spigell/sourcerer/internal/outreach"
	"github.com/spigell/sourcerer/internal/scoring"
	"github.com/spigell/sourcerer/internal/sourcing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "sourcerer"
)

type Config struct {
	Cache    *cache.Config         `mapstructure:"cache"`
	Batch    *batch.Config         `mapstructure:"batch"`
	Scoring  *scoring.Config       `mapstructure:"scoring"`
	Outreach *outreach.Config      `mapstructure:"outreach"`
	Pipeline *sourcing.AgentConfig `mapstructure:"pipeline"`
	AI       *AIConfig             `mapstructure:"ai"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "sourcerer is a cli for sourcing candidates from public profiles and drafting outreach",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is sourcerer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The version command works without a config file.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// The config file is optional: every section has a usable default. A
	// present but unparseable file is still fatal.
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}
