package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-booking/app/controller"
	"github.com/vibast-solutions/ms-go-booking/app/events"
	"github.com/vibast-solutions/ms-go-booking/app/graph"
	bookinggrpc "github.com/vibast-solutions/ms-go-booking/app/grpc"
	"github.com/vibast-solutions/ms-go-booking/app/metrics"
	"github.com/vibast-solutions/ms-go-booking/app/middleware"
	"github.com/vibast-solutions/ms-go-booking/app/service"
	"github.com/vibast-solutions/ms-go-booking/config"

	"github.com/graph-gophers/graphql-go"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start the HTTP (Echo, GraphQL) and gRPC servers of the booking service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type eventPinger interface {
	PingContext(ctx context.Context) error
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	bus, busPinger, err := newEventBus(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to redis")
	}
	defer bus.Close()

	m := metrics.New()
	accounts, err := newAccountService(cfg, db,
		service.WithPublisher(bus),
		service.WithMutationObserver(m),
	)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to build account service")
	}
	appointments := service.NewAppointmentService(db, bus, service.WithAppointmentObserver(m))

	schema, err := graph.NewSchema(graph.NewResolver(accounts, appointments))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to parse GraphQL schema")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grpcServer := newGRPCServer(accounts)
	go startGRPCServer(cfg, grpcServer)
	defer grpcServer.GracefulStop()

	e := newHTTPServer(accounts, schema, m, controller.NewHealthController(db, busPinger))
	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
}

// newEventBus returns the Redis bus when REDIS_ADDR is set, so that several
// replicas share subscriptions, and the in-process bus otherwise.
func newEventBus(cfg *config.Config) (events.Bus, eventPinger, error) {
	if !cfg.Redis.Enabled() {
		logrus.Info("Using in-memory event bus")
		return events.NewMemoryBus(), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	bus := events.NewRedisBus(client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bus.PingContext(ctx); err != nil {
		client.Close()
		return nil, nil, err
	}

	logrus.WithField("addr", cfg.Redis.Addr).Info("Using redis event bus")
	return bus, bus, nil
}

func newHTTPServer(
	accounts service.AccountService,
	schema *graphql.Schema,
	m *metrics.Metrics,
	health *controller.HealthController,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(m.Middleware())

	graphqlController := controller.NewGraphQLController(schema)
	authMiddleware := middleware.NewAuthMiddleware(accounts)

	api := e.Group("/graphql", authMiddleware.Authenticate)
	api.GET("", graphqlController.Handle)
	api.POST("", graphqlController.Handle)

	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	e.GET("/healthz", health.Healthz)

	return e
}

func newGRPCServer(accounts service.AccountService) *grpc.Server {
	server := grpc.NewServer(grpc.UnaryInterceptor(bookinggrpc.AuthUnaryInterceptor(accounts)))
	bookinggrpc.Register(server, bookinggrpc.NewAccountServer(accounts))
	return server
}

func startGRPCServer(cfg *config.Config, server *grpc.Server) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	logrus.WithField("addr", grpcAddr).Info("Starting gRPC server")
	if err := server.Serve(lis); err != nil {
		logrus.WithError(err).Fatal("Failed to start gRPC server")
	}
}
