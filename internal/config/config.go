package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Стратегии идентификаторов строк графика
const (
	IDStrategySequence = "sequence"
	IDStrategyUUID     = "uuid"
)

// Config содержит конфигурацию движка графиков
type Config struct {
	Port              int
	MaxInstallments   int
	MaxAmount         float64
	OTELEndpoint      string
	OTELServiceName   string
	LogLevel          string
	AmortizationURL   string
	FinancingURL      string
	AmendmentURL      string
	HTTPTimeout       time.Duration
	RedisAddr         string
	FinancingCacheTTL time.Duration
	IDStrategy        string
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	// Загружаем .env файл, если он существует (игнорируем ошибку)
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnvInt("PORT", 8000),
		MaxInstallments:   getEnvInt("MAX_INSTALLMENTS", 600),
		MaxAmount:         getEnvFloat("MAX_AMOUNT", 1e10),
		OTELEndpoint:      getEnvString("OTEL_ENDPOINT", ""),
		OTELServiceName:   getEnvString("OTEL_SERVICE_NAME", "installments-engine"),
		LogLevel:          getEnvString("LOG_LEVEL", "INFO"),
		AmortizationURL:   getEnvString("AMORTIZATION_URL", "http://localhost:3000/api/amortization"),
		FinancingURL:      getEnvString("FINANCING_URL", "http://localhost:3000/api/financing"),
		AmendmentURL:      getEnvString("AMENDMENT_URL", "http://localhost:3000/api/financing"),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		RedisAddr:         getEnvString("REDIS_ADDR", ""),
		FinancingCacheTTL: getEnvDuration("FINANCING_CACHE_TTL", time.Minute),
		IDStrategy:        getEnvString("ID_STRATEGY", IDStrategySequence),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет конфигурацию и собирает все ошибки сразу
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if c.MaxInstallments < 1 {
		problems = append(problems, fmt.Sprintf("invalid max installments %d: must be at least 1", c.MaxInstallments))
	}
	if c.MaxAmount <= 0 {
		problems = append(problems, fmt.Sprintf("invalid max amount %v: must be positive", c.MaxAmount))
	}

	for name, raw := range map[string]string{
		"AMORTIZATION_URL": c.AmortizationURL,
		"FINANCING_URL":    c.FinancingURL,
		"AMENDMENT_URL":    c.AmendmentURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, fmt.Sprintf("invalid %s '%s': must be an absolute http(s) URL", name, raw))
		}
	}

	if c.HTTPTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid http timeout %v: must be positive", c.HTTPTimeout))
	}
	if c.RedisAddr != "" && c.FinancingCacheTTL < time.Second {
		problems = append(problems, fmt.Sprintf("invalid financing cache ttl %v: must be at least 1 second", c.FinancingCacheTTL))
	}
	if c.IDStrategy != IDStrategySequence && c.IDStrategy != IDStrategyUUID {
		problems = append(problems, fmt.Sprintf("invalid id strategy '%s': must be '%s' or '%s'", c.IDStrategy, IDStrategySequence, IDStrategyUUID))
	}

	if len(problems) > 0 {
		// порядок обхода map не фиксирован
		sort.Strings(problems)
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
