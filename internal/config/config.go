package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	LogLevel             string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string

	Mail     MailConfig
	WhatsApp WhatsAppConfig
	AI       AIConfig
	Reminder ReminderConfig
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
	// SuppressSend skips the SMTP dial and treats every send as delivered.
	// Dev convenience only.
	SuppressSend bool
}

type WhatsAppConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	RatePerSec int
}

type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type ReminderConfig struct {
	Workers         int
	QueueSize       int
	DispatchTimeout time.Duration
	// SweepSpec is the cron spec for the reconcile sweep that re-schedules
	// reminders from the tasks table.
	SweepSpec string
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	cfg.JWTSecret = mustGetenv("JWT_SECRET")

	cfg.Mail = MailConfig{
		Host:         getenv("MAIL_HOST", "smtp.gmail.com"),
		Port:         getenvInt("MAIL_PORT", 587),
		Username:     getenv("MAIL_USERNAME", ""),
		Password:     getenv("MAIL_PASSWORD", ""),
		Sender:       getenv("MAIL_SENDER", ""),
		SuppressSend: getenv("MAIL_SUPPRESS_SEND", "false") == "true",
	}

	cfg.WhatsApp = WhatsAppConfig{
		AccountSID: getenv("TWILIO_ACCOUNT_SID", ""),
		AuthToken:  getenv("TWILIO_AUTH_TOKEN", ""),
		From:       getenv("TWILIO_WHATSAPP_FROM", "whatsapp:+14155238886"),
		RatePerSec: getenvInt("TWILIO_RATE_PER_SEC", 3),
	}

	cfg.AI = AIConfig{
		APIKey:  getenv("OPENAI_API_KEY", ""),
		BaseURL: getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		Model:   getenv("OPENAI_MODEL", "gpt-4o-mini"),
	}

	cfg.Reminder = ReminderConfig{
		Workers:         getenvInt("REMINDER_WORKERS", 4),
		QueueSize:       getenvInt("REMINDER_QUEUE_SIZE", 256),
		DispatchTimeout: getenvDuration("REMINDER_DISPATCH_TIMEOUT", 15*time.Second),
		SweepSpec:       getenv("REMINDER_SWEEP_SPEC", "@hourly"),
	}

	return cfg
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}
