package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Path string
	}
	Server struct {
		Port int
	}
	Auth struct {
		JWTSecret string
	}
	Mail struct {
		SMTPHost   string
		SMTPPort   int
		From       string
		Password   string
		ThrottleMS int
	}
	Report struct {
		BaseURL string // dashboard URL the personalized report links point at
	}
	Slack struct {
		Token   string
		Channel string
	}
	Cron struct {
		Enabled bool
		Spec    string // cron expression for the dispatch trigger
	}
}

// LoadConfig loads the configuration from config.yaml
func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	var config Config

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use default values
			applyDefaults(&config)

			// Create default config file
			viper.Set("database.path", config.Database.Path)
			viper.Set("server.port", config.Server.Port)
			viper.Set("report.baseurl", config.Report.BaseURL)
			viper.Set("mail.throttlems", config.Mail.ThrottleMS)
			viper.Set("cron.spec", config.Cron.Spec)

			// Ensure data directory exists
			if err := os.MkdirAll("data", 0755); err != nil {
				fmt.Printf("Warning: Failed to create data directory: %v\n", err)
			}

			if err := viper.SafeWriteConfig(); err != nil {
				fmt.Printf("Warning: Failed to write default config: %v\n", err)
			}
		} else {
			fmt.Printf("Error reading config file: %v\n", err)
		}
	} else {
		if err := viper.Unmarshal(&config); err != nil {
			fmt.Printf("Error unmarshaling config: %v\n", err)
		}
		fillMissing(&config)
	}

	return &config
}

func applyDefaults(config *Config) {
	config.Database.Path = "data/reportdash.db"
	config.Server.Port = 8080
	config.Report.BaseURL = "http://localhost:3000/projects"
	config.Mail.ThrottleMS = 600
	config.Cron.Spec = "0 7 * * *"
}

func fillMissing(config *Config) {
	if config.Database.Path == "" {
		config.Database.Path = "data/reportdash.db"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Report.BaseURL == "" {
		config.Report.BaseURL = "http://localhost:3000/projects"
	}
	if config.Mail.ThrottleMS == 0 {
		config.Mail.ThrottleMS = 600
	}
	if config.Cron.Spec == "" {
		config.Cron.Spec = "0 7 * * *"
	}
}
