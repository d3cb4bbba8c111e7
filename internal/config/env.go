package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DB       DBConfig
	Redis    RedisConfig
	Server   ServerConfig
	Webhook  WebhookConfig
	Renderer RendererConfig
}

type DBConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	DisableSSL bool
}

type ServerConfig struct {
	Port string
}

// WebhookConfig aponta para o serviço que recebe avisos de pagamento.
type WebhookConfig struct {
	URL string
}

// RendererConfig aponta para o serviço externo que gera os PDFs de recibo.
type RendererConfig struct {
	URL string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return Config{
		DB: DBConfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USERNAME", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			Name:       getEnv("DB_NAME", "apexsales"),
			DisableSSL: getEnv("DB_SSL_MODE_DISABLE", "") == "true",
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Webhook: WebhookConfig{
			URL: getEnv("PAYMENT_WEBHOOK_URL", ""),
		},
		Renderer: RendererConfig{
			URL: getEnv("RECEIPT_RENDERER_URL", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
