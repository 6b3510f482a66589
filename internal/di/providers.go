package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Elmeric/cycliti/internal/app"
	"github.com/Elmeric/cycliti/internal/config"
	"github.com/Elmeric/cycliti/internal/database"
	"github.com/Elmeric/cycliti/internal/health"
	"github.com/Elmeric/cycliti/internal/http/handler"
	"github.com/Elmeric/cycliti/internal/http/middleware"
	"github.com/Elmeric/cycliti/internal/http/router"
	"github.com/Elmeric/cycliti/internal/observability"
	"github.com/Elmeric/cycliti/internal/repository"
	"github.com/Elmeric/cycliti/internal/security"
	"github.com/Elmeric/cycliti/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(repository.NewIdentityRepository)

var SecuritySet = wire.NewSet(
	provideJWTManager,
	providePasswordHasher,
	wire.Bind(new(service.PasswordHasher), new(*security.PasswordHasher)),
)

var ServiceSet = wire.NewSet(
	provideDispatcher,
	provideAccountNotifier,
	provideActivationNotifier,
	providePasswordResetNotifier,
	provideCredentialThrottle,
	provideListCacheStore,
	providePhotoStorage,
	provideThirdPartyProvider,
	service.NewActivationService,
	service.NewPasswordResetService,
	service.NewAuthService,
	service.NewLinkService,
	provideUserService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.ActivationServiceInterface), new(*service.ActivationService)),
	wire.Bind(new(service.PasswordResetServiceInterface), new(*service.PasswordResetService)),
	wire.Bind(new(service.LinkServiceInterface), new(*service.LinkService)),
	wire.Bind(new(service.UserServiceInterface), new(*service.UserService)),
	wire.Bind(new(middleware.CurrentUserResolver), new(*service.AuthService)),
)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewAccountHandler,
	handler.NewUserHandler,
	provideStravaHandler,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

// accountNotifier delivers both account emails through one transport.
type accountNotifier interface {
	service.ActivationNotifier
	service.PasswordResetNotifier
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

// provideRuntimeDB opens the database, applies the schema and seeds the
// first superuser before the API accepts traffic.
func provideRuntimeDB(cfg *config.Config, hasher *security.PasswordHasher, logger *slog.Logger) (*gorm.DB, error) {
	ctx := context.Background()
	start := time.Now()
	db, err := database.Open(cfg)
	if err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "open", "error")
		return nil, err
	}
	observability.RecordDatabaseStartupDuration(ctx, "open", time.Since(start))

	start = time.Now()
	if err := database.Migrate(db); err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "migrate", "error")
		return nil, err
	}
	observability.RecordDatabaseStartupEvent(ctx, "migrate", "success")
	observability.RecordDatabaseStartupDuration(ctx, "migrate", time.Since(start))

	report, err := database.Seed(ctx, repository.NewIdentityRepository(db), database.SuperuserSeed{
		Email:    cfg.FirstUserEmail,
		Username: cfg.FirstUserUsername,
		Password: cfg.FirstUserPassword,
	}, hasher.Hash)
	if err != nil {
		return nil, err
	}
	if !report.Noop {
		logger.Info("superuser seeded", "created", report.Created, "promoted", report.Promote)
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.RedisEnabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.SecretKey)
}

func providePasswordHasher(cfg *config.Config) *security.PasswordHasher {
	return security.NewPasswordHasher(security.PasswordParams{
		Time:      cfg.Argon2Time,
		MemoryKiB: cfg.Argon2MemoryKiB,
		Threads:   cfg.Argon2Threads,
	})
}

func provideDispatcher(cfg *config.Config, logger *slog.Logger) *service.Dispatcher {
	return service.NewDispatcher(logger, cfg.EmailSendTimeout)
}

// provideAccountNotifier sends real email when EMAILS_ENABLED is set and
// only logs the links otherwise.
func provideAccountNotifier(cfg *config.Config, logger *slog.Logger) accountNotifier {
	if !cfg.EmailsEnabled {
		return service.NewLogNotifier(logger)
	}
	mailer := service.NewSMTPMailer(service.SMTPSettings{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		StartTLS: cfg.SMTPTLS,
		FromName: cfg.EmailsFromName,
		FromAddr: cfg.EmailsFromEmail,
	})
	return service.NewEmailNotifier(mailer, service.EmailSettings{
		ProjectName: cfg.ProjectName,
		ServerHost:  cfg.ServerHost,
	})
}

func provideActivationNotifier(n accountNotifier) service.ActivationNotifier { return n }

func providePasswordResetNotifier(n accountNotifier) service.PasswordResetNotifier { return n }

func provideCredentialThrottle(cfg *config.Config, redisClient redis.UniversalClient) service.CredentialThrottle {
	if !cfg.AuthAbuseProtectionEnabled {
		return service.NoopCredentialThrottle{}
	}
	policy := service.ThrottlePolicy{
		FreeAttempts: cfg.AuthAbuseFreeAttempts,
		BaseDelay:    cfg.AuthAbuseBaseDelay,
		Multiplier:   cfg.AuthAbuseMultiplier,
		MaxDelay:     cfg.AuthAbuseMaxDelay,
		ResetWindow:  cfg.AuthAbuseResetWindow,
	}
	if redisClient != nil {
		return service.NewRedisCredentialThrottle(redisClient, cfg.RedisPrefix, policy)
	}
	return service.NewMemoryCredentialThrottle(policy)
}

func provideListCacheStore(cfg *config.Config, redisClient redis.UniversalClient) service.ListCacheStore {
	if cfg.UserListCacheTTL <= 0 {
		return service.NewNoopListCacheStore()
	}
	if redisClient != nil {
		return service.NewRedisListCacheStore(redisClient, cfg.RedisPrefix)
	}
	return service.NewInMemoryListCacheStore()
}

func providePhotoStorage(cfg *config.Config) (service.PhotoStorage, error) {
	if !cfg.StorageEnabled {
		return service.DisabledPhotoStorage{}, nil
	}
	return service.NewMinIOPhotoStorage(service.MinIOSettings{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
	})
}

func provideThirdPartyProvider(cfg *config.Config) service.ThirdPartyProvider {
	return service.NewStravaProvider(service.StravaSettings{
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		TokenURL:     cfg.StravaTokenURL,
		HTTPTimeout:  cfg.StravaHTTPTimeout,
	})
}

func provideUserService(
	cfg *config.Config,
	repo repository.IdentityRepository,
	photos service.PhotoStorage,
	cache service.ListCacheStore,
	logger *slog.Logger,
) *service.UserService {
	return service.NewUserService(repo, photos, cache, cfg.UserListCacheTTL, logger)
}

func provideStravaHandler(links service.LinkServiceInterface, cfg *config.Config) *handler.StravaHandler {
	return handler.NewStravaHandler(links, cfg.FrontendHost)
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	accountHandler *handler.AccountHandler,
	userHandler *handler.UserHandler,
	stravaHandler *handler.StravaHandler,
	resolver middleware.CurrentUserResolver,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:    authHandler,
		AccountHandler: accountHandler,
		UserHandler:    userHandler,
		StravaHandler:  stravaHandler,
		CurrentUser:    resolver,
		APIPrefix:      cfg.APIV1Prefix,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		Readiness:      readiness,
		EnableOTelHTTP: cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	var smtp health.Checker
	if cfg.EmailsEnabled {
		smtp = health.NewSMTPChecker(cfg.SMTPHost, cfg.SMTPPort)
	}
	return health.NewProbeRunner(
		cfg.ReadinessProbeTimeout,
		cfg.ServerStartGracePeriod,
		health.NewDBChecker(db),
		health.NewRedisChecker(redisClient),
		smtp,
	)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
	dispatcher *service.Dispatcher,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient, readiness, dispatcher)
}
