package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"skillenergy/docs"
	"skillenergy/internal/api/v1/handler"
	"skillenergy/internal/auth"
	"skillenergy/internal/config"
	"skillenergy/internal/middleware"
	"skillenergy/internal/pubsub"
	"skillenergy/internal/repository"
	"skillenergy/internal/service"
	"skillenergy/internal/storage"
	"skillenergy/internal/upload"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"
)

// New wires every dependency and returns the HTTP handler. The returned cleanup
// releases the pool, broker and cache clients and must be called on shutdown.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (http.Handler, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// 1. Resolve secrets
	if cfg.JWTSecretResource != "" {
		accessor, err := config.NewSecretAccessor(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		if err := cfg.ResolveSecrets(ctx, accessor); err != nil {
			return fail(err)
		}
	} else if err := cfg.ResolveSecrets(ctx, nil); err != nil {
		return fail(err)
	}

	// 2. Open DB pool
	pool, err := repository.NewPool(ctx, dsnFor(cfg), cfg.DBMaxConns)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, pool.Close)
	logger.Info().Msg("Database connection successful")

	if cfg.DBMigrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			return fail(fmt.Errorf("migrate database: %w", err))
		}
		logger.Info().Msg("Database schema is up to date")
	}

	// 3. Object storage
	store, err := newStore(ctx, cfg, &closers)
	if err != nil {
		return fail(err)
	}
	logger.Info().Str("driver", cfg.StorageDriver).Msg("Object storage ready")

	// 4. Event publisher
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = p.Close() })
		publisher = p
	} else {
		logger.Warn().Msg("GCP_PROJECT_ID not set, events are written to the log")
		publisher = pubsub.NewLogPublisher(logger)
	}

	// 5. Repositories, services and handlers
	now := service.Clock(time.Now)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	uploads := upload.NewResolver(cfg.MaxUploadBytes)
	validate := handler.NewValidator()

	userRepo := repository.NewUserRepo(pool)
	reasonRepo := repository.NewDeletionReasonRepo(pool)
	planRepo := repository.NewPlanRepo(pool)
	paymentRepo := repository.NewPaymentRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)
	coursePaymentRepo := repository.NewCoursePaymentRepo(pool)
	categoryRepo := repository.NewCategoryRepo(pool)
	languageRepo := repository.NewLanguageRepo(pool)
	mentorRepo := repository.NewMentorRepo(pool)
	companyRepo := repository.NewCompanyRepo(pool)
	sectionRepo := repository.NewSectionRepo(pool)
	cartRepo := repository.NewCartRepo(pool)
	wishlistRepo := repository.NewWishlistRepo(pool)
	ratingRepo := repository.NewRatingRepo(pool)
	reminderRepo := repository.NewReminderRepo(pool)
	billingRepo := repository.NewBillingRepo(pool)
	statsRepo := repository.NewStatsRepo(pool)

	userSvc := service.NewUserService(userRepo, reasonRepo, store, now, logger)
	reasonSvc := service.NewDeletionReasonService(reasonRepo)
	authSvc := service.NewAuthService(userRepo, tokens, publisher, cfg.PubSubNotificationTopic, now, logger)
	courseSvc := service.NewCourseService(courseRepo, categoryRepo, languageRepo, wishlistRepo, store, now, logger)
	coursePaymentSvc := service.NewCoursePaymentService(coursePaymentRepo, courseRepo, logger)
	categorySvc := service.NewCategoryService(categoryRepo)
	languageSvc := service.NewLanguageService(languageRepo, store, now, logger)
	sectionSvc := service.NewSectionService(sectionRepo, courseRepo, store, now, logger)
	planSvc := service.NewPlanService(planRepo)
	paymentSvc := service.NewPaymentService(paymentRepo, userRepo, planRepo, publisher, cfg.PubSubPaymentsTopic, now, logger)
	mentorSvc := service.NewMentorService(mentorRepo, courseRepo, store, now, logger)
	companySvc := service.NewCompanyService(companyRepo, store, now, logger)
	cartSvc := service.NewCartService(cartRepo, courseRepo)
	wishlistSvc := service.NewWishlistService(wishlistRepo, courseRepo)
	ratingSvc := service.NewRatingService(ratingRepo, courseRepo)
	reminderSvc := service.NewReminderService(reminderRepo)
	billingSvc := service.NewBillingService(billingRepo)
	dashboardSvc := service.NewDashboardService(statsRepo, mentorRepo, courseSvc)

	// 6. Middleware
	authMiddleware := middleware.Authenticate(tokens, userSvc, logger)
	mw := handler.Middlewares{
		Auth:     authMiddleware,
		Admin:    func(next http.Handler) http.Handler { return authMiddleware(middleware.RequireAdmin(next)) },
		Throttle: func(next http.Handler) http.Handler { return next },
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		closers = append(closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("Redis unreachable, rate limiter will fail open")
		}
		limiter := middleware.NewRateLimiter(middleware.NewRedisCounter(rdb), cfg.TrustProxy, logger)
		mw.Throttle = limiter.Limit("auth", cfg.AuthRateLimit, cfg.AuthRateWindow)
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, auth rate limiting disabled")
	}

	// 7. Routes
	mux := http.NewServeMux()
	handlers := []interface {
		RegisterRoutes(*http.ServeMux, handler.Middlewares)
	}{
		handler.NewAuthHandler(authSvc, validate, cfg.CookieSecure, logger),
		handler.NewUserHandler(userSvc, reasonSvc, uploads, validate, logger),
		handler.NewCourseHandler(courseSvc, coursePaymentSvc, categorySvc, languageSvc, uploads, validate, logger),
		handler.NewSectionHandler(sectionSvc, uploads, logger),
		handler.NewPaymentHandler(planSvc, paymentSvc, validate, logger),
		handler.NewPeopleHandler(mentorSvc, companySvc, uploads, logger),
		handler.NewCartHandler(cartSvc, validate, logger),
		handler.NewWishlistHandler(wishlistSvc, validate, logger),
		handler.NewEngagementHandler(ratingSvc, reminderSvc, billingSvc, validate, logger),
		handler.NewDashboardHandler(dashboardSvc, logger),
	}
	for _, h := range handlers {
		h.RegisterRoutes(mux, mw)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Swagger document generated into the docs package
	mux.HandleFunc("GET /swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			http.Error(w, "swagger document unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})

	// 8. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), cleanup, nil
}

func newStore(ctx context.Context, cfg *config.Config, closers *[]func()) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "s3":
		return storage.NewS3(ctx, storage.S3Config{
			Endpoint:  cfg.S3URL,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	case "gcs":
		g, err := storage.NewGCS(ctx, cfg.GCSBucket, cfg.GCPCredentialsFile)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, func() { _ = g.Close() })
		return g, nil
	case "memory":
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// dsnFor disables SSL for local databases and switches hosted ones to the simple
// protocol, since transaction poolers such as pgbouncer reject prepared statements.
func dsnFor(cfg *config.Config) string {
	dsn := cfg.DBConnectionString
	add := func(param string) {
		if isURL(dsn) {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + param
			return
		}
		dsn += " " + param
	}
	if cfg.IsDevelopment() {
		if !strings.Contains(dsn, "sslmode") {
			add("sslmode=disable")
		}
		return dsn
	}
	if !strings.Contains(dsn, "default_query_exec_mode") {
		add("default_query_exec_mode=simple_protocol")
	}
	return dsn
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
