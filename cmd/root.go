package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "hh-roster"
	envPrefix = "HH_ROSTER"
)

type Config struct {
	Data      string           `mapstructure:"data"`
	Server    *ServerConfig    `mapstructure:"server"`
	Retrieval *RetrievalConfig `mapstructure:"retrieval"`
	Embedding *EmbeddingConfig `mapstructure:"embedding"`
}

type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	CORSOrigins []string      `mapstructure:"cors-origins"`
	ReadTimeout time.Duration `mapstructure:"read-timeout"`
}

type RetrievalConfig struct {
	TopK    int           `mapstructure:"top-k"`
	Timeout time.Duration `mapstructure:"timeout"`
	Workers int           `mapstructure:"workers"`
}

type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
	Dimensions int    `mapstructure:"dimensions"`
	MaxRetries int    `mapstructure:"max-retries"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-roster answers natural-language and structured queries about an employee roster",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("embedding.api-key", envPrefix+"_EMBEDDING_API_KEY"); err != nil {
		log.Fatalf("binding embedding api key environment variables: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-roster.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("data", "", "path to the employees dataset")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data"))
}

func setDefaults() {
	viper.SetDefault("data", "employees_dataset.json")

	viper.SetDefault("server.addr", ":8000")
	viper.SetDefault("server.cors-origins", []string{"*"})
	viper.SetDefault("server.read-timeout", 10*time.Second)

	viper.SetDefault("retrieval.top-k", 5)
	viper.SetDefault("retrieval.timeout", 30*time.Second)
	viper.SetDefault("retrieval.workers", 0)

	viper.SetDefault("embedding.provider", "hash")
	viper.SetDefault("embedding.model", "")
	viper.SetDefault("embedding.api-key-file", "")
	viper.SetDefault("embedding.base-url", "")
	viper.SetDefault("embedding.dimensions", 384)
	viper.SetDefault("embedding.max-retries", 3)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// An explicit config file must exist; the default one is optional.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
