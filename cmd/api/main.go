package main

import (
	"context"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/inventory-analytics-api/infrastructure/cache"
	"github.com/vfg2006/inventory-analytics-api/infrastructure/database/postgres"
	"github.com/vfg2006/inventory-analytics-api/infrastructure/integrator/rest"
	"github.com/vfg2006/inventory-analytics-api/infrastructure/integrator/rest/restclient"
	"github.com/vfg2006/inventory-analytics-api/infrastructure/migration/script"
	"github.com/vfg2006/inventory-analytics-api/infrastructure/notifier"
	"github.com/vfg2006/inventory-analytics-api/infrastructure/repository"
	"github.com/vfg2006/inventory-analytics-api/internal/analytics"
	"github.com/vfg2006/inventory-analytics-api/internal/api"
	"github.com/vfg2006/inventory-analytics-api/internal/api/handler"
	"github.com/vfg2006/inventory-analytics-api/internal/config"
	"github.com/vfg2006/inventory-analytics-api/internal/scheduler"
	"github.com/vfg2006/inventory-analytics-api/internal/usecases/authenticating"
	"github.com/vfg2006/inventory-analytics-api/internal/usecases/dashboarding"
)

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
)

func main() {
	// Inicializa configuração de logs
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	// Define o nível de log com base na configuração
	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Nível de log configurado para: %s", logLevel)

	loc, err := cfg.Location()
	if err != nil {
		logrus.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	if cfg.Database.AutoMigrate {
		if err := script.Apply(ctx, pgConn, cfg.Invalidation.Channel); err != nil {
			logrus.WithError(err).Fatal("Erro ao aplicar o schema")
		}
	}

	healthChecks := map[string]handler.Pinger{"postgres": pgConn}

	var redisClient *redis.Client
	if cfg.Analytics.CacheDriver == "redis" || cfg.Invalidation.Driver == config.InvalidationRedis {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logrus.WithError(err).Fatal("Erro ao conectar ao Redis")
		}
		defer redisClient.Close()

		healthChecks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	snapshotLoader, ledgerLoader := loaders(cfg, pgConn)
	valueSnapshotRepo := repository.NewValueSnapshotRepository(pgConn)

	metricsCache := metricsCache(cfg, redisClient)
	changeNotifier := changeNotifier(ctx, cfg, pgConn, redisClient)

	aggregator := analytics.NewAggregator(analytics.Options{
		DefaultWindowDays: cfg.Analytics.DefaultWindowDays,
		TopMovers:         cfg.Analytics.TopMovers,
		Location:          loc,
	})

	dashboardService := dashboarding.NewService(snapshotLoader, ledgerLoader, metricsCache, aggregator, dashboarding.Options{
		LedgerLimit: cfg.Analytics.LedgerLimit,
		CacheTTL:      cfg.Analytics.CacheTTL,
		MaxWindowDays: cfg.Analytics.MaxWindowDays,
	})
	hub := dashboarding.NewHub(dashboardService, changeNotifier, dashboarding.InstanceOptions{
		Debounce: cfg.Invalidation.Debounce,
	})

	authenticator := authenticating.NewService(cfg.Auth)

	// Inicializa os agendadores. A varredura também encerra inscrições de filiais ociosas.
	dashboardRefreshService := scheduler.NewDashboardRefreshService(hub, cfg, loc)
	valueSnapshotService := scheduler.NewValueSnapshotService(snapshotLoader, valueSnapshotRepo, aggregator.Calendar(), cfg)

	if err := dashboardRefreshService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de atualização do dashboard")
	} else {
		logrus.Info("Agendador de atualização do dashboard iniciado com sucesso")
	}

	if err := valueSnapshotService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de fechamento de estoque")
	} else {
		logrus.Info("Agendador de fechamento de estoque iniciado com sucesso")
	}

	server, err := api.New(cfg, api.Dependencies{
		Dashboard:     hub,
		Hub:           hub,
		ValueHistory:  valueSnapshotService,
		Authenticator: authenticator,
		HealthChecks:  healthChecks,
		CronServices: handler.CronJobServices{
			DashboardRefreshService: dashboardRefreshService,
			ValueSnapshotService:    valueSnapshotService,
		},
	})
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	os.Chdir(dir)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

// pgconn cria uma conexão com o banco de dados
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	err = conn.Ping(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao testar conexão com PostgreSQL")
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}

// loaders escolhe de onde vêm catálogo e ledger: consultas diretas ou a API REST do backend
func loaders(cfg *config.Config, conn *postgres.Connection) (dashboarding.SnapshotLoader, dashboarding.LedgerLoader) {
	if cfg.Source.Driver == config.SourceREST {
		integrator := rest.New(restclient.NewClient(cfg.Source))
		logrus.WithField("url", cfg.Source.RestURL).Info("Loaders configurados para a API REST")
		return integrator, integrator
	}

	logrus.Info("Loaders configurados para o PostgreSQL")
	return repository.NewProductSnapshotRepository(conn), repository.NewTransactionLedgerRepository(conn)
}

func metricsCache(cfg *config.Config, client *redis.Client) dashboarding.MetricsCache {
	if cfg.Analytics.CacheDriver == "redis" && client != nil {
		logrus.Info("Cache de métricas no Redis")
		return cache.NewRedis(client)
	}

	logrus.Info("Cache de métricas em memória")
	return cache.NewMemory()
}

func changeNotifier(ctx context.Context, cfg *config.Config, conn *postgres.Connection, client *redis.Client) dashboarding.ChangeNotifier {
	switch cfg.Invalidation.Driver {
	case config.InvalidationPostgres:
		listener := conn.NewListener(listenerMinReconnect, listenerMaxReconnect)
		pgNotifier := notifier.NewPostgres(listener, cfg.Invalidation.Channel)
		if err := pgNotifier.Start(ctx); err != nil {
			logrus.WithError(err).Fatal("Erro ao iniciar escuta de alterações no PostgreSQL")
		}
		logrus.WithField("channel", cfg.Invalidation.Channel).Info("Invalidação por LISTEN/NOTIFY do PostgreSQL")
		return pgNotifier

	case config.InvalidationRedis:
		logrus.Info("Invalidação por pub/sub do Redis")
		return notifier.NewRedis(client)

	default:
		logrus.Warn("Invalidação em tempo real desabilitada; métricas dependem do TTL e da varredura agendada")
		return notifier.NewNone()
	}
}
