package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatdagang/internal/dispatch"
	"chatdagang/internal/infrastructure"
	httpiface "chatdagang/internal/interfaces/http"
	"chatdagang/internal/repository"
	"chatdagang/internal/usecases"
)

func main() {
	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	log, err := infrastructure.NewLogger(cfg)
	if err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer log.Sync()

	pgClient, err := infrastructure.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pgClient.Close()

	cipher, err := infrastructure.NewCredentialCipher(cfg.CredentialKey)
	if err != nil {
		log.Fatal("Invalid credential key", zap.Error(err))
	}

	// Repositories
	tenantRepo := repository.NewTenantRepository(pgClient.Pool)
	cartRepo := repository.NewCartRepository(pgClient.Pool)
	auditRepo := repository.NewAuditRepository(pgClient.Pool)
	reservationRepo := repository.NewReservationRepository(pgClient.Pool)
	operatorRepo := repository.NewOperatorRepository(pgClient.Pool)
	settingsRepo := repository.NewSettingsRepository(pgClient.Pool)
	catalogRepo := repository.NewCatalogRepository(pgClient.Pool)

	// Audit fan-out over AMQP is optional; the transcript in Postgres is
	// the source of truth either way.
	var events usecases.EventSink
	if cfg.AMQPURL != "" {
		publisher, err := infrastructure.NewEventPublisher(cfg.AMQPURL, cfg.AuditExchange, log)
		if err != nil {
			log.Warn("AMQP unavailable, audit events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	// Usecases
	locks := infrastructure.NewKeyedLocks()
	resolver := usecases.NewResolver(tenantRepo, cipher, log)
	gates := usecases.NewGateChain()
	throttle := usecases.NewNoticeThrottle()
	audit := usecases.NewAuditLogger(auditRepo, events, log)
	engine := usecases.NewRuleEngine(catalogRepo, settingsRepo)
	dispatcher := dispatch.NewDispatcher(log)

	pipeline := usecases.NewPipeline(resolver, gates, throttle, cartRepo, audit, engine, dispatcher, locks, settingsRepo, log)

	authUsecase := usecases.NewAuthUsecase(operatorRepo, cfg.JWTSecret)
	if err := authUsecase.EnsureAdmin(context.Background(), getenv("ADMIN_USER", "root"), getenv("ADMIN_PASS", "root")); err != nil {
		log.Warn("Failed to ensure admin user", zap.Error(err))
	}

	guard := usecases.NewReservationGuard(reservationRepo, locks)
	dashboardUsecase := usecases.NewDashboardUsecase(cartRepo, cartRepo, auditRepo, reservationRepo, guard)

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	webhooks := httpiface.NewWebhookHandler(pipeline, cfg.MetaVerifyToken, cfg.FacebookVerifyToken, log)
	dashboard := httpiface.NewDashboardHandler(dashboardUsecase, authUsecase)
	middleware := httpiface.NewMiddleware(cfg.JWTSecret)

	httpiface.SetupRoutes(r, webhooks, dashboard, middleware)

	log.Info("Server starting", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
