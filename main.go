package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"order-management/config"
	"order-management/consumers"
	"order-management/controllers"
	"order-management/database"
	"order-management/kafka"
	"order-management/middlewares"
	"order-management/notifications"
	"order-management/rabbitmq"
	"order-management/repositories"
	"order-management/services"
)

type runner interface {
	Run(ctx context.Context) error
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid LOG_LEVEL %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// notificationTransport builds the Sender the dispatcher publishes to, and the
// queue consumer when the transport has one.
func notificationTransport(cfg *config.Config, logger *logrus.Logger) (notifications.Sender, runner, func(), error) {
	mailer := notifications.NewLogSender(logger, cfg.MailFrom)

	switch cfg.NotifyTransport {
	case config.TransportRabbitMQ:
		rmq, err := rabbitmq.NewRabbitMQ(cfg, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := rmq.SetupQueues(); err != nil {
			rmq.Close()
			return nil, nil, nil, fmt.Errorf("setup queues: %w", err)
		}
		consumeCh, err := rmq.Conn.Channel()
		if err != nil {
			rmq.Close()
			return nil, nil, nil, fmt.Errorf("open consumer channel: %w", err)
		}
		consumer := consumers.NewNotificationConsumer(consumeCh, cfg, mailer, logger)
		return rmq, consumer, rmq.Close, nil

	case config.TransportKafka:
		pub, err := kafka.NewPublisher(cfg.KafkaBrokerList(), cfg.KafkaTopic)
		if err != nil {
			return nil, nil, nil, err
		}
		return pub, nil, func() {
			if err := pub.Close(); err != nil {
				logger.Warnf("Failed to close Kafka writer: %v", err)
			}
		}, nil

	default:
		return mailer, nil, func() {}, nil
	}
}

func newRouter(db *sql.DB, oc *controllers.OrderController, auth gin.HandlerFunc, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestID(), middlewares.RequestLogger(logger), middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	controllers.RegisterRoutes(r, oc, auth)
	return r
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger := newLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Fatalf("Service stopped with error: %v", err)
	}
	logger.Info("Service stopped")
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database initialization: %w", err)
	}
	defer db.Close()

	sender, consumer, closeTransport, err := notificationTransport(cfg, logger)
	if err != nil {
		return fmt.Errorf("notification transport %q: %w", cfg.NotifyTransport, err)
	}
	defer closeTransport()

	dispatcher := notifications.NewDispatcher(sender, logger, cfg.NotifyBuffer, cfg.NotifyWorkers, cfg.NotifyTimeout)

	users := repositories.NewUserRepository(db, logger)
	orderService := services.NewOrderService(
		services.NewPricingEngine(repositories.NewProductRepository(db, logger)),
		repositories.NewOrderRepository(db, logger),
		dispatcher,
		logger,
	)
	itemService := services.NewOrderItemService(repositories.NewOrderItemRepository(db, logger), logger)
	oc := controllers.NewOrderController(orderService, itemService, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(db, oc, middlewares.AuthMiddleware(cfg.JWTSecret, users, logger), logger),
	}

	// The dispatcher stops only after the HTTP server has drained.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(dispatchCtx)
	})
	if consumer != nil {
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}
	g.Go(func() error {
		logger.Infof("Order management service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		stopDispatch()
		return err
	})

	return g.Wait()
}
