package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"smartbus/internal/utils"
)

type Env struct {
	AppAddr string
	GinMode string

	DB DBConfig

	JWTSecret   string
	TokenTTL    time.Duration
	SessionTTL  time.Duration
	RedisAddr   string
	RedisPass   string
	AMQPURL     string
	CORSOrigins []string

	TicketPrice   int64
	BusCapacity   int
	OccupiedSeats []int
	PaymentDelay  time.Duration
	SessionIdle   time.Duration

	// Location is used for form times without an offset.
	Location *time.Location
}

type DBConfig struct {
	Driver   string
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// LoadEnv reads configuration from the process environment. A .env file in
// the working directory is loaded first when present; variables already
// set in the environment win.
func LoadEnv() Env {
	if err := godotenv.Load(); err == nil {
		log.Println("[CONFIG] loaded .env")
	}

	env := Env{
		AppAddr: getEnv("APP_ADDR", ":8080"),
		GinMode: strings.TrimSpace(os.Getenv("GIN_MODE")),
		DB: DBConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
			DSN:      strings.TrimSpace(os.Getenv("DB_DSN")),
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     os.Getenv("DB_PORT"),
			User:     getEnv("DB_USER", "root"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "smartbus"),
		},
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      getDuration("TOKEN_TTL", 24*time.Hour),
		SessionTTL:    getDuration("ADMIN_SESSION_TTL", 24*time.Hour),
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPass:     os.Getenv("REDIS_PASSWORD"),
		AMQPURL:       strings.TrimSpace(os.Getenv("AMQP_URL")),
		CORSOrigins:   defaultOrigins,
		TicketPrice:   int64(getInt("TICKET_PRICE", 2000)),
		BusCapacity:   getInt("BUS_CAPACITY", 30),
		OccupiedSeats: []int{5, 6, 15},
		PaymentDelay:  getDuration("PAYMENT_DELAY", 2*time.Second),
		SessionIdle:   getDuration("BOOKING_IDLE_TIMEOUT", 30*time.Minute),
		Location:      time.Local,
	}

	if env.DB.Port == "" {
		env.DB.Port = "3306"
		if env.DB.Driver == "postgres" {
			env.DB.Port = "5432"
		}
	}
	if raw, ok := os.LookupEnv("OCCUPIED_SEATS"); ok {
		env.OccupiedSeats = utils.ParseIntList(raw)
	}
	if raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); raw != "" {
		env.CORSOrigins = nil
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				env.CORSOrigins = append(env.CORSOrigins, o)
			}
		}
	}
	if tz := getEnv("APP_TIMEZONE", "Africa/Kigali"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.Printf("[CONFIG] WARNING: unknown APP_TIMEZONE=%q, using local time", tz)
		} else {
			env.Location = loc
		}
	}
	if env.JWTSecret == "" {
		log.Println("[CONFIG] WARNING: JWT_SECRET not set, using development secret")
		env.JWTSecret = "smartbus-dev-secret-change-me"
	}

	return env
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("[CONFIG] WARNING: invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("[CONFIG] WARNING: invalid %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}
