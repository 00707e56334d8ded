package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	JWTSecret string
	JWTTTL    time.Duration

	PaystackBaseURL     string
	PaystackSecretKey   string
	PaystackCallbackURL string
	PaystackTimeout     time.Duration

	RabbitMQURL       string
	OrderExchange     string
	OrderQueue        string
	DeadLetterQueue   string
	DelayExchange     string
	MaxPriority       int
	PaymentCheckDelay time.Duration

	CORSOrigins []string

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// LoadConfig reads the process environment. A .env file, when envFile points
// at one, only fills variables that are not already set.
func LoadConfig(envFile string) *Config {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to load %s: %v", envFile, err)
		}
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		DBUser:              getEnv("DB_USER", "root"),
		DBPassword:          getEnvFromFile("DB_PASSWORD_FILE", "DB_PASSWORD", ""),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "3306"),
		DBName:              getEnv("DB_NAME", "coffee_shop"),
		JWTSecret:           getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", "changeme"),
		JWTTTL:              getDuration("JWT_TTL", 24*time.Hour),
		PaystackBaseURL:     strings.TrimRight(getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"), "/"),
		PaystackSecretKey:   getEnvFromFile("PAYSTACK_SECRET_KEY_FILE", "PAYSTACK_SECRET_KEY", ""),
		PaystackCallbackURL: getEnv("PAYSTACK_CALLBACK_URL", ""),
		PaystackTimeout:     getDuration("PAYSTACK_TIMEOUT", 10*time.Second),
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		OrderExchange:       getEnv("ORDER_EXCHANGE", "orders_exchange"),
		OrderQueue:          getEnv("ORDER_QUEUE", "orders_queue"),
		DeadLetterQueue:     getEnv("DEAD_LETTER_QUEUE", "dead_letter_queue"),
		DelayExchange:       getEnv("DELAY_EXCHANGE", "delay_exchange"),
		MaxPriority:         10,
		PaymentCheckDelay:   getDuration("PAYMENT_CHECK_DELAY", 15*time.Minute),
		CORSOrigins:         getList("CORS_ORIGINS", []string{"*"}),
		AdminEmail:          getEnv("ADMIN_EMAIL", ""),
		AdminPassword:       getEnvFromFile("ADMIN_PASSWORD_FILE", "ADMIN_PASSWORD", ""),
		AdminName:           getEnv("ADMIN_NAME", "Admin"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return getEnv(envKey, defaultValue)
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
