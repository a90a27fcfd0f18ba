package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App              App              `mapstructure:",squash"`
	Server           Server           `mapstructure:",squash"`
	Database         Database         `mapstructure:",squash"`
	Redis            Redis            `mapstructure:",squash"`
	Auth             Auth             `mapstructure:",squash"`
	Source           Source           `mapstructure:",squash"`
	Analytics        Analytics        `mapstructure:",squash"`
	Invalidation     Invalidation     `mapstructure:",squash"`
	DashboardRefresh DashboardRefresh `mapstructure:",squash"`
	ValueSnapshot    ValueSnapshot    `mapstructure:",squash"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
	Timezone string `mapstructure:"app_timezone"`
}

type Server struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`

	// AutoMigrate aplica o schema (tabelas, índices e gatilhos de notificação) na subida
	AutoMigrate bool `mapstructure:"database_auto_migrate"`
}

type Redis struct {
	Addr     string `mapstructure:"redis_addr"`
	Password string `mapstructure:"redis_password"`
	DB       int    `mapstructure:"redis_db"`
}

type Auth struct {
	Secret      string `mapstructure:"auth_secret"`
	AdminRoleID int    `mapstructure:"auth_admin_role_id"`
}

// Fontes de dados aceitas pelos loaders
const (
	SourcePostgres = "postgres"
	SourceREST     = "rest"
)

type Source struct {
	Driver     string        `mapstructure:"source_driver"`
	RestURL    string        `mapstructure:"source_rest_url"`
	RestAPIKey string        `mapstructure:"source_rest_api_key"`
	Timeout    time.Duration `mapstructure:"source_timeout"`
}

type Analytics struct {
	LedgerLimit       int           `mapstructure:"analytics_ledger_limit"`
	DefaultWindowDays int           `mapstructure:"analytics_default_window_days"`
	TopMovers         int           `mapstructure:"analytics_top_movers"`
	MaxWindowDays     int           `mapstructure:"analytics_max_window_days"`
	CacheTTL          time.Duration `mapstructure:"analytics_cache_ttl"`
	CacheDriver       string        `mapstructure:"analytics_cache_driver"`
}

// Drivers de notificação de alterações
const (
	InvalidationPostgres = "postgres"
	InvalidationRedis    = "redis"
	InvalidationNone     = "none"
)

type Invalidation struct {
	Driver   string        `mapstructure:"invalidation_driver"`
	Channel  string        `mapstructure:"invalidation_channel"`
	Debounce time.Duration `mapstructure:"invalidation_debounce"`
}

type DashboardRefresh struct {
	CronSchedule string `mapstructure:"dashboard_refresh_cron"`
	Enabled      bool   `mapstructure:"dashboard_refresh_enabled"`
}

type ValueSnapshot struct {
	CronSchedule      string `mapstructure:"value_snapshot_cron"`
	Enabled           bool   `mapstructure:"value_snapshot_enabled"`
	MaxConcurrentJobs int    `mapstructure:"value_snapshot_max_concurrent_jobs"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")

	viper.SetDefault("APP_TIMEZONE", "UTC")

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/inventory")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")
	viper.SetDefault("DATABASE_AUTO_MIGRATE", false)

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("AUTH_SECRET", "your_secret_key")
	viper.SetDefault("AUTH_ADMIN_ROLE_ID", 1)

	viper.SetDefault("SOURCE_DRIVER", SourcePostgres)
	viper.SetDefault("SOURCE_REST_URL", "http://localhost:54321")
	viper.SetDefault("SOURCE_REST_API_KEY", "")
	viper.SetDefault("SOURCE_TIMEOUT", "15s")

	viper.SetDefault("ANALYTICS_LEDGER_LIMIT", 1000)      // Últimos 1000 movimentos
	viper.SetDefault("ANALYTICS_DEFAULT_WINDOW_DAYS", 30) // Janela padrão do gráfico diário
	viper.SetDefault("ANALYTICS_TOP_MOVERS", 10)          // Produtos mais movimentados
	viper.SetDefault("ANALYTICS_MAX_WINDOW_DAYS", 366)    // Maior período aceito nos filtros
	viper.SetDefault("ANALYTICS_CACHE_TTL", "5m")         // Validade do cache de métricas
	viper.SetDefault("ANALYTICS_CACHE_DRIVER", "memory")  // memory | redis

	viper.SetDefault("INVALIDATION_DRIVER", InvalidationPostgres)
	viper.SetDefault("INVALIDATION_CHANNEL", "inventory_changes")
	viper.SetDefault("INVALIDATION_DEBOUNCE", "250ms") // Rajadas de alterações viram um único recálculo

	viper.SetDefault("DASHBOARD_REFRESH_CRON", "*/5 * * * *") // A cada 5 minutos
	viper.SetDefault("DASHBOARD_REFRESH_ENABLED", true)

	viper.SetDefault("VALUE_SNAPSHOT_CRON", "55 23 * * *") // Fechamento diário às 23h55
	viper.SetDefault("VALUE_SNAPSHOT_ENABLED", false)
	viper.SetDefault("VALUE_SNAPSHOT_MAX_CONCURRENT_JOBS", 3)

	viper.SetDefault("LOG_LEVEL", "debug")
}

func NewConfig() (*Config, error) {
	// Primeiro carregar o arquivo .env usando godotenv
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	} else {
		logrus.Info("Arquivo .env lido pelo Viper com sucesso")
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

// Validate confere as combinações de drivers antes de subir a aplicação
func (c *Config) Validate() error {
	switch c.Source.Driver {
	case SourcePostgres:
	case SourceREST:
		if c.Source.RestURL == "" {
			return fmt.Errorf("config: SOURCE_REST_URL é obrigatório para o driver %q", SourceREST)
		}
	default:
		return fmt.Errorf("config: SOURCE_DRIVER inválido: %q", c.Source.Driver)
	}

	switch c.Invalidation.Driver {
	case InvalidationPostgres, InvalidationRedis, InvalidationNone:
	default:
		return fmt.Errorf("config: INVALIDATION_DRIVER inválido: %q", c.Invalidation.Driver)
	}

	if c.Analytics.LedgerLimit <= 0 {
		return fmt.Errorf("config: ANALYTICS_LEDGER_LIMIT deve ser positivo")
	}

	if c.Analytics.MaxWindowDays > 0 && c.Analytics.MaxWindowDays < c.Analytics.DefaultWindowDays {
		return fmt.Errorf("config: ANALYTICS_MAX_WINDOW_DAYS menor que ANALYTICS_DEFAULT_WINDOW_DAYS")
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: APP_TIMEZONE inválido: %w", err)
	}

	return nil
}

// Location retorna o fuso usado para o corte de dia das métricas
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.App.Timezone)
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		logrus.Debug("Tentando carregar .env de:", location)
		if err := godotenv.Load(location); err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Warn("Não foi possível carregar o arquivo .env de nenhuma localização conhecida")
}
