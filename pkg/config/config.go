package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Backends de persistencia soportados para el KVStore del libro.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	HTTP   HTTPConfig
	JWT    JWTConfig
	Ledger LedgerConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// RedisConfig configuración del backend Redis.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig configuración del token que identifica al escritor (dispositivo).
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// LedgerConfig configuración del libro de lotes y de la sincronización entre escritores.
type LedgerConfig struct {
	Backend      string   // memory | postgres | redis
	WriterID     string   // identidad de este dispositivo/sesión
	Peers        []string // URLs base de otros escritores
	SyncSchedule string   // expresión cron (robfig/cron), ej. "@every 30s"
	SyncBatch    int      // máximo de deltas por lote de sincronización
	FullResync   int      // cada cuántas rondas se pide el log completo a cada par (0 = nunca)
	PeerToken    string   // Bearer enviado a los pares
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, LEDGER_WRITER_ID, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo .env o config.env; se ignora si no existe
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.MergeInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "lot-ledger"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "lot_ledger"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:      getString(v, "REDIS_ADDR", "localhost:6379"),
			Password:  getString(v, "REDIS_PASSWORD", ""),
			DB:        getInt(v, "REDIS_DB", 0),
			Namespace: getString(v, "REDIS_NAMESPACE", "lotledger:"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60*24*30),
			Issuer:     getString(v, "JWT_ISSUER", "lot-ledger"),
		},
		Ledger: LedgerConfig{
			Backend:      strings.ToLower(getString(v, "STORE_BACKEND", BackendMemory)),
			WriterID:     getString(v, "LEDGER_WRITER_ID", ""),
			Peers:        splitList(getString(v, "LEDGER_PEERS", "")),
			SyncSchedule: getString(v, "LEDGER_SYNC_SCHEDULE", "@every 30s"),
			SyncBatch:    getInt(v, "LEDGER_SYNC_BATCH", 500),
			FullResync:   getInt(v, "LEDGER_FULL_RESYNC_EVERY", 20),
			PeerToken:    getString(v, "LEDGER_PEER_TOKEN", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Ledger.Backend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("STORE_BACKEND desconocido: %q", c.Ledger.Backend)
	}
	if c.Ledger.WriterID == "" {
		return fmt.Errorf("LEDGER_WRITER_ID es obligatorio")
	}
	if c.Ledger.SyncBatch <= 0 {
		return fmt.Errorf("LEDGER_SYNC_BATCH debe ser positivo")
	}
	if c.Ledger.FullResync < 0 {
		return fmt.Errorf("LEDGER_FULL_RESYNC_EVERY no puede ser negativo")
	}
	if _, err := cron.ParseStandard(c.Ledger.SyncSchedule); err != nil {
		return fmt.Errorf("LEDGER_SYNC_SCHEDULE inválido: %w", err)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	if s, ok := v.Get(key).(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return def
		}
		return n
	}
	return v.GetInt(key)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.TrimRight(p, "/"))
		}
	}
	return out
}
