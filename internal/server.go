package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"

	"github.com/2beens/fitjournal/internal/auth"
	"github.com/2beens/fitjournal/internal/cache"
	"github.com/2beens/fitjournal/internal/catalog"
	"github.com/2beens/fitjournal/internal/config"
	"github.com/2beens/fitjournal/internal/db"
	"github.com/2beens/fitjournal/internal/docstore"
	"github.com/2beens/fitjournal/internal/errreport"
	"github.com/2beens/fitjournal/internal/journal"
	"github.com/2beens/fitjournal/internal/mcpserver"
	"github.com/2beens/fitjournal/internal/middleware"
	"github.com/2beens/fitjournal/internal/onboarding"
	"github.com/2beens/fitjournal/internal/settings"
	"github.com/2beens/fitjournal/internal/telemetry/metrics"
	"github.com/2beens/fitjournal/internal/telemetry/tracing"
)

const (
	sessionsCleanupInterval = 8 * time.Hour
	errorBusBufferSize      = 256
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient  *redis.Client
	loginChecker auth.Checker
	sessions     *auth.SessionStore
	authService  *auth.Service

	store          docstore.Store
	catalogService *catalog.Service
	journals       *journal.Manager
	settingsStore  *settings.Store
	errorBus       *errreport.Bus
	recentErrors   *errreport.Recent
	stopErrorBus   context.CancelFunc
	errorBusDone   chan struct{}

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	DBUser                  string
	DBPassword              string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fitjournal", rdb)
	if err != nil {
		return nil, err
	}

	var (
		dbPool          *pgxpool.Pool
		store           docstore.Store
		users           auth.UsersRepo
		extraCollectors []prometheus.Collector
	)
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         params.DBUser,
			DBPassword:     params.DBPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		pgStore := docstore.NewPgStore(dbPool, rdb)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		pgUsers := auth.NewPgUsersRepo(dbPool)
		if err := pgUsers.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		store, users = pgStore, pgUsers

		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	default:
		log.Warnln("using the in-memory document store, data is lost on restart")
		store, users = docstore.NewMemStore(), auth.NewMemUsersRepo()
	}

	promRegistry := metrics.SetupPrometheus(extraCollectors...)
	metricsManager := metrics.NewManager("fitjournal", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	errorBus := errreport.NewBus(errorBusBufferSize, metricsManager)
	catalogService := catalog.NewService(store)
	sessions := auth.NewSessionStore(auth.DefaultTTL, rdb)

	s := &Server{
		config:      cfg,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient:  rdb,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),
		sessions:     sessions,
		authService:  auth.NewService(users, sessions, rdb, catalogService),

		store:          store,
		catalogService: catalogService,
		journals: journal.NewManager(
			store,
			errorBus,
			cache.NewFreeBestsCache(cfg.BestsCacheSizeMB*1024*1024, metricsManager),
			metricsManager,
		),
		settingsStore: settings.NewStore(rdb),
		errorBus:      errorBus,
		recentErrors:  errreport.NewRecent(errreport.DefaultRecentSize),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	return s, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintf(w, "fitjournal %s", s.versionInfo)
	}).Methods("GET")

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	allowedPerMin := s.config.AuthRateLimitAllowedPerMin
	authHandler := auth.NewHandler(s.authService, func(userID string) {
		s.journals.Close(userID)
		s.recentErrors.Clear(userID)
	})
	r.Handle("/a/signup", middleware.RateLimit(reqRateLimiter, "signup", allowedPerMin, s.metricsManager)(
		http.HandlerFunc(authHandler.HandleSignUp),
	)).Methods("POST", "OPTIONS").Name("signup")
	r.Handle("/a/login", middleware.RateLimit(reqRateLimiter, "login", allowedPerMin, s.metricsManager)(
		http.HandlerFunc(authHandler.HandleLogin),
	)).Methods("POST", "OPTIONS").Name("login")
	r.HandleFunc("/a/logout", authHandler.HandleLogout).Methods("POST", "OPTIONS").Name("logout")
	r.HandleFunc("/a/reset", authHandler.HandleReset).Methods("POST", "OPTIONS").Name("reset-password")
	r.HandleFunc("/a/reset/confirm", authHandler.HandleConfirmReset).Methods("POST", "OPTIONS").Name("confirm-reset")
	r.HandleFunc("/a/me", authHandler.HandleMe).Methods("GET", "OPTIONS").Name("me")
	r.Handle("/a/password", middleware.RateLimit(reqRateLimiter, "password", allowedPerMin, s.metricsManager)(
		http.HandlerFunc(authHandler.HandleChangePassword),
	)).Methods("POST", "OPTIONS").Name("change-password")
	r.Handle("/a/profile", middleware.RateLimit(reqRateLimiter, "profile", allowedPerMin, s.metricsManager)(
		http.HandlerFunc(authHandler.HandleUpdateProfile),
	)).Methods("PUT", "OPTIONS").Name("update-profile")

	onboardingHandler := onboarding.NewHandler()
	r.HandleFunc("/welcome", onboardingHandler.HandleWelcome).Methods("GET", "OPTIONS")
	r.HandleFunc("/welcome/done", onboardingHandler.HandleWelcomeDone).Methods("POST", "OPTIONS")

	journalHandler := journal.NewHandler(s.journals, s.catalogService)
	r.HandleFunc("/workouts", journalHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	r.HandleFunc("/workouts", journalHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-workout")
	r.HandleFunc("/workouts/{id}", journalHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	r.HandleFunc("/workouts/{id}", journalHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	r.HandleFunc("/workouts/{id}", journalHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-workout")
	r.HandleFunc("/bests", journalHandler.HandleBests).Methods("GET", "OPTIONS").Name("personal-bests")

	catalogHandler := catalog.NewHandler(s.catalogService)
	r.HandleFunc("/exercises", catalogHandler.HandleListExercises).Methods("GET", "OPTIONS")
	r.HandleFunc("/exercises", catalogHandler.HandleAddExercise).Methods("POST", "OPTIONS")
	r.HandleFunc("/exercises/{id}", catalogHandler.HandleUpdateExercise).Methods("PUT", "OPTIONS")
	r.HandleFunc("/exercises/{id}", catalogHandler.HandleDeleteExercise).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/metcons", catalogHandler.HandleListMetcons).Methods("GET", "OPTIONS")
	r.HandleFunc("/metcons", catalogHandler.HandleAddMetcon).Methods("POST", "OPTIONS")
	r.HandleFunc("/metcons/{id}", catalogHandler.HandleUpdateMetcon).Methods("PUT", "OPTIONS")
	r.HandleFunc("/metcons/{id}", catalogHandler.HandleDeleteMetcon).Methods("DELETE", "OPTIONS")

	settingsHandler := settings.NewHandler(s.settingsStore)
	r.HandleFunc("/settings", settingsHandler.HandleGet).Methods("GET", "OPTIONS")
	r.HandleFunc("/settings", settingsHandler.HandleReset).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/settings/{key}", settingsHandler.HandleSet).Methods("PUT", "OPTIONS")

	errorsHandler := errreport.NewHandler(s.recentErrors)
	r.HandleFunc("/errors/recent", errorsHandler.HandleRecent).Methods("GET", "OPTIONS")

	r.PathPrefix("/mcp").Handler(otelhttp.NewHandler(
		mcpserver.NewHTTPHandler(s.journals, s.catalogService),
		"mcp",
	))

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	s.startErrorReporting()
	go s.cleanSessionsPeriodically(ctx)

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", metrics.Handler(s.promRegistry))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

// startErrorReporting wires the default listeners (log + metrics, recent
// failures per user) to the error bus and starts it.
func (s *Server) startErrorReporting() {
	logged := s.errorBus.Subscribe()
	recent := s.errorBus.Subscribe()

	busCtx, cancel := context.WithCancel(context.Background())
	s.stopErrorBus = cancel
	s.errorBusDone = make(chan struct{})

	go errreport.LogFailures(logged, s.metricsManager)
	go s.recentErrors.Consume(recent)
	go func() {
		defer close(s.errorBusDone)
		s.errorBus.Run(busCtx)
	}()
}

func (s *Server) cleanSessionsPeriodically(ctx context.Context) {
	ticker := time.NewTicker(sessionsCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessions.ScanAndClean(ctx)
		}
	}
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var shutdownErr error
	if s.httpServer != nil {
		shutdownErr = multierr.Append(shutdownErr, s.httpServer.Shutdown(ctx))
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		shutdownErr = multierr.Append(shutdownErr, s.metricsHttpServer.Shutdown(ctx))
		log.Warnln("metrics server shut down")
	}

	// pending journal writes may still report failures to the bus
	s.journals.CloseAll()
	log.Debugln("journals closed")
	if closer, ok := s.store.(io.Closer); ok {
		shutdownErr = multierr.Append(shutdownErr, closer.Close())
	}
	if s.stopErrorBus != nil {
		s.stopErrorBus()
		<-s.errorBusDone
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		shutdownErr = multierr.Append(shutdownErr, s.redisClient.Close())
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	for _, err := range multierr.Errors(shutdownErr) {
		log.Errorf(" >>> graceful shutdown: %s", err)
	}
}
