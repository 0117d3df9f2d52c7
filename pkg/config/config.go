package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceName string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret []byte

	KafkaBrokers []string

	ESURL        string
	ESUser       string
	ESPassword   string
	ESOrderIndex string

	LogLevel string

	CSRFEnabled  bool
	CookieSecure bool

	MinLeadBusinessDays int
	TaxPercent          int
	DepositPercent      int
}

func defaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "craft-store")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ES_ORDER_INDEX", "orders")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CSRF_ENABLED", true)
	v.SetDefault("DELIVERY_MIN_LEAD_DAYS", 3)
	v.SetDefault("TAX_PERCENT", 19)
	v.SetDefault("DEPOSIT_PERCENT", 50)
}

// Load reads .env (if present) into the process environment and resolves
// every key through viper so defaults and env overrides live in one place.
func Load(envFiles ...string) Config {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Printf("notice: .env not loaded: %v, using system environment", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	return Config{
		ServiceName: v.GetString("SERVICE_NAME"),

		ServerPort: v.GetInt("SERVER_PORT"),

		DatabaseURL: v.GetString("DATABASE_URL"),

		JWTAccessSecret: []byte(v.GetString("JWT_SECRET")),

		KafkaBrokers: CSV(v.GetString("KAFKA_BROKERS")),

		ESURL:        v.GetString("ES_URL"),
		ESUser:       v.GetString("ES_USER"),
		ESPassword:   v.GetString("ES_PASSWORD"),
		ESOrderIndex: v.GetString("ES_ORDER_INDEX"),

		LogLevel: v.GetString("LOG_LEVEL"),

		CSRFEnabled:  v.GetBool("CSRF_ENABLED"),
		CookieSecure: v.GetBool("COOKIE_SECURE"),

		MinLeadBusinessDays: v.GetInt("DELIVERY_MIN_LEAD_DAYS"),
		TaxPercent:          v.GetInt("TAX_PERCENT"),
		DepositPercent:      v.GetInt("DEPOSIT_PERCENT"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
