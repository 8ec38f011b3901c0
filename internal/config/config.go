package config

import (
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Postgres struct {
	Host     string
	Port     string
	DB       string
	User     string
	Password string
	SSLMode  string
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type Session struct {
	ArchiveCap    int
	GraceWindow   time.Duration
	SweepInterval time.Duration
}

type Print struct {
	StallAfter  time.Duration
	MaxAttempts int
}

type Restaurant struct {
	Name    string
	Address string
	Phone   string
}

type Retry struct {
	Attempts     int
	Base         time.Duration
	Max          time.Duration
	JitterFactor float64
}

type Breaker struct {
	Threshold   int
	OpenTimeout time.Duration
	MaxHalfOpen int
}

type Bridge struct {
	APIBaseURL     string
	SerialPort     string
	BaudRate       int
	CashPoll       time.Duration
	PrinterPoll    time.Duration
	ReconnectDelay time.Duration
	RequestTimeout time.Duration
}

type Config struct {
	HTTPAddr string

	Session    Session
	Print      Print
	Restaurant Restaurant

	Pg      Postgres
	Kafka   Kafka
	Retry   Retry
	Breaker Breaker
	Bridge  Bridge
}

// Load fatals on error for simplicity in main().
func Load() Config {
	cfg, err := load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	return cfg
}

func load() (Config, error) {
	_ = godotenv.Load("env/.env")

	cfg := Config{
		HTTPAddr: envDefault("HTTP_ADDR", ":8081"),

		Session: Session{
			ArchiveCap:    envInt("SESSION_ARCHIVE_CAP", 500),
			GraceWindow:   envDurationMS("SESSION_GRACE", 2*time.Minute),
			SweepInterval: envDurationMS("SWEEP_INTERVAL", 30*time.Second),
		},

		Print: Print{
			StallAfter:  envDurationMS("PRINT_STALL_AFTER", 3*time.Minute),
			MaxAttempts: envInt("PRINT_MAX_ATTEMPTS", 3),
		},

		Restaurant: Restaurant{
			Name:    envDefault("RESTAURANT_NAME", "Restaurant"),
			Address: strings.TrimSpace(os.Getenv("RESTAURANT_ADDRESS")),
			Phone:   strings.TrimSpace(os.Getenv("RESTAURANT_PHONE")),
		},

		Pg: Postgres{
			Host:     strings.TrimSpace(os.Getenv("PG_HOST")),
			Port:     strings.TrimSpace(envDefault("PG_PORT", "5432")),
			DB:       strings.TrimSpace(os.Getenv("PG_DB")),
			User:     strings.TrimSpace(os.Getenv("PG_USER")),
			Password: strings.TrimSpace(os.Getenv("PG_PASSWORD")),
			SSLMode:  strings.TrimSpace(envDefault("PG_SSLMODE", "disable")),
		},

		Kafka: Kafka{
			Brokers: splitCSV(strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))),
			Topic:   strings.TrimSpace(envDefault("KAFKA_TOPIC", "kitchen-orders")),
		},

		Retry: Retry{
			Attempts:     envInt("RETRY_ATTEMPTS", 3),
			Base:         envDurationMS("RETRY_BASE", 500*time.Millisecond),
			Max:          envDurationMS("RETRY_MAX", 5*time.Second),
			JitterFactor: envFloat64("RETRY_JITTERFACTOR", 0.3),
		},

		Breaker: Breaker{
			Threshold:   envInt("BREAKER_THRESHOLD", 5),
			OpenTimeout: envDurationMS("BREAKER_OPENTIMEOUT", 15*time.Second),
			MaxHalfOpen: envInt("BREAKER_MAXHALFOPEN", 2),
		},

		Bridge: Bridge{
			APIBaseURL:     envDefault("BRIDGE_API_URL", "http://localhost:8081"),
			SerialPort:     envDefault("BRIDGE_SERIAL_PORT", "/dev/ttyUSB0"),
			BaudRate:       envInt("BRIDGE_BAUD_RATE", 9600),
			CashPoll:       envDurationMS("BRIDGE_CASH_POLL", 5*time.Second),
			PrinterPoll:    envDurationMS("BRIDGE_PRINTER_POLL", 2*time.Second),
			ReconnectDelay: envDurationMS("BRIDGE_RECONNECT_DELAY", 5*time.Second),
			RequestTimeout: envDurationMS("BRIDGE_REQUEST_TIMEOUT", 10*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	req := map[string]string{
		"PG_HOST":     c.Pg.Host,
		"PG_DB":       c.Pg.DB,
		"PG_USER":     c.Pg.User,
		"PG_PASSWORD": c.Pg.Password,
	}
	for k, v := range req {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &missingEnvError{Keys: missing}
	}

	if c.Session.ArchiveCap <= 0 {
		log.Printf("SESSION_ARCHIVE_CAP is %d, adjusting to 1", c.Session.ArchiveCap)
		c.Session.ArchiveCap = 1
	}
	if c.Session.GraceWindow <= 0 {
		log.Printf("SESSION_GRACE is %v, adjusting to 2m", c.Session.GraceWindow)
		c.Session.GraceWindow = 2 * time.Minute
	}
	if c.Print.MaxAttempts < 1 {
		log.Printf("PRINT_MAX_ATTEMPTS is %d, adjusting to 1", c.Print.MaxAttempts)
		c.Print.MaxAttempts = 1
	}
	// Empty KAFKA_BROKERS is allowed: the kitchen notifier degrades to a
	// log-only stub so a kiosk can run without a broker.
	return nil
}

type missingEnvError struct{ Keys []string }

func (e *missingEnvError) Error() string {
	return "missing required envs: " + strings.Join(e.Keys, ", ")
}

// DSN builds a proper Postgres URL, safely escaping user/pass and query.
func (c Config) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Pg.User, c.Pg.Password),
		Host:   net.JoinHostPort(c.Pg.Host, c.Pg.Port),
		Path:   "/" + c.Pg.DB,
	}
	q := url.Values{}
	if c.Pg.SSLMode != "" {
		q.Set("sslmode", c.Pg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func envDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return n
}

func envFloat64(k string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %.3f: %v", k, v, def, err)
		return def
	}
	return f
}

// envDurationMS supports either plain integer milliseconds ("1500") or
// Go duration strings ("1.5s", "250ms", "2m").
func envDurationMS(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
			return def
		}
		return d
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
