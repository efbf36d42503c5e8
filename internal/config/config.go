package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port             string
	DatabaseURL      string
	MaxRounds        int
	ReconnectTimeout time.Duration
	GameOverDelay    time.Duration
	ElevenLabsAPIKey string
	ElevenLabsVoice  string
}

func Load() Config {
	cfg := Config{
		Port:             getEnv("PORT", "4000"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MaxRounds:        getEnvInt("MAX_ROUNDS", 5),
		ReconnectTimeout: time.Duration(getEnvInt("RECONNECT_TIMEOUT_MS", 30000)) * time.Millisecond,
		GameOverDelay:    time.Duration(getEnvInt("GAME_OVER_DELAY_MS", 3000)) * time.Millisecond,
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoice:  os.Getenv("ELEVENLABS_VOICE_ID"),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
