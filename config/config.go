package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Telegram Bot
	BotToken string

	// Database
	DatabasePath string

	// Reminder schedule (cron expression); empty disables the job
	ReminderCron string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:     os.Getenv("BOT_TOKEN"),
		DatabasePath: getEnvDefault("DATABASE_PATH", "accountant.db"),
		ReminderCron: "0 9 * * *",
	}

	if v, ok := os.LookupEnv("REMINDER_CRON"); ok {
		cfg.ReminderCron = v
	}

	if cfg.BotToken == "" {
		cfg.BotToken = tokenFromFile("config.json")
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required (env var or bot_token in config.json)")
	}

	return cfg, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func tokenFromFile(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	var fileCfg struct {
		BotToken string `json:"bot_token"`
	}
	if err := json.NewDecoder(file).Decode(&fileCfg); err != nil {
		return ""
	}
	return fileCfg.BotToken
}
