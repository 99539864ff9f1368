package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/tsel-ticketmaster/tm-fulfillment/config"
	adminapp_reporting "github.com/tsel-ticketmaster/tm-fulfillment/internal/module/adminapp/reporting"
	customerapp_inventory "github.com/tsel-ticketmaster/tm-fulfillment/internal/module/customerapp/inventory"
	customerapp_marketplace "github.com/tsel-ticketmaster/tm-fulfillment/internal/module/customerapp/marketplace"
	customerapp_order "github.com/tsel-ticketmaster/tm-fulfillment/internal/module/customerapp/order"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/module/customerapp/stripe"
	customerapp_ticket "github.com/tsel-ticketmaster/tm-fulfillment/internal/module/customerapp/ticket"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/jwt"
	internalMiddleare "github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/applogger"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/gctasks"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/kafka"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/monitoring"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/postgresql"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/pubsub"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/redis"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/server"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/validator"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

var c *config.Config

func init() {
	c = config.Get()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := applogger.GetLogrus()

	mon := monitoring.NewOpenTelemetry(
		c.Application.Name,
		c.Application.Environment,
		c.GCP.ProjectID,
	)

	mon.Start(ctx)

	validate := validator.Get()

	hc := http.DefaultClient

	jsonWebToken := jwt.NewJSONWebToken(c.JWT.PrivateKey, c.JWT.PublicKey)

	psqldb := postgresql.GetDatabase()
	if err := psqldb.Ping(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	publisher := pubsub.PublisherFromConfluentKafkaProducer(logger, kafka.NewProducer())

	rc := redis.GetClient()
	if err := rc.Ping(context.Background()).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	cloudTask := gctasks.NewGCTasks(logger, c.GCP.ProjectID, c.GCP.ServiceAccount)

	sessionStore := session.NewRedisSessionStore(logger, rc)

	customerSessionMiddleware := internalMiddleare.NewCustomerSessionMiddleware(jsonWebToken, sessionStore)
	adminSessionMiddleware := internalMiddleare.NewAdminSessionMiddleware(jsonWebToken, sessionStore)

	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(c.Application.Name),
		middleware.HTTPResponseTraceInjection,
		middleware.NewHTTPRequestLogger(logger, c.Application.Debug, http.StatusInternalServerError).Middleware,
	)

	signatureTolerance := c.Stripe.SignatureTolerance
	withinTolerance := func(timestamp int64) bool {
		drift := time.Since(time.Unix(timestamp, 0))
		if drift < 0 {
			drift = -drift
		}
		return drift <= signatureTolerance
	}

	// customer's app
	tierRepo := customerapp_inventory.NewTierRepository(logger, psqldb)
	reservationRepo := customerapp_inventory.NewReservationRepository(logger, psqldb)
	ledger := customerapp_inventory.NewLedger(logger, tierRepo, reservationRepo)

	stripeRepo := stripe.NewStripeRepository(c.Stripe.BaseURL, c.Stripe.SecretKey, c.Stripe.WebhookSecret, withinTolerance, logger, hc)

	ticketRepo := customerapp_ticket.NewTicketRepository(logger, psqldb)
	ticketIssuer := customerapp_ticket.NewIssuer(logger, c.Ticket.SigningSecret, ticketRepo)
	ticketUseCase := customerapp_ticket.NewTicketUseCase(customerapp_ticket.TicketUseCaseProperty{
		Logger:           logger,
		Timeout:          c.Application.Timeout,
		TicketRepository: ticketRepo,
		Publisher:        publisher,
	})
	customerapp_ticket.InitHTTPHandler(router, customerSessionMiddleware, adminSessionMiddleware, validate, ticketUseCase)

	orderRepo := customerapp_order.NewOrderRepository(logger, psqldb)
	orderUseCase := customerapp_order.NewOrderUseCase(customerapp_order.OrderUseCaseProperty{
		Logger:                  logger,
		Timeout:                 c.Application.Timeout,
		BaseURL:                 c.Application.TMFulfillment.BaseURL,
		OrderExpireDuration:     c.Order.Expiration,
		ServiceChargePercentage: c.Order.ServiceChargePercentage,
		RestockOnRefund:         c.Order.RestockOnRefund,
		TierRepository:          tierRepo,
		Ledger:                  ledger,
		OrderRepository:         orderRepo,
		TicketIssuer:            ticketIssuer,
		TicketUseCase:           ticketUseCase,
		StripeRepository:        stripeRepo,
		Publisher:               publisher,
		CloudTask:               cloudTask,
	})
	customerapp_order.InitHTTPHandler(router, customerSessionMiddleware, validate, orderUseCase)

	listingRepo := customerapp_marketplace.NewListingRepository(logger, psqldb)
	marketplaceUseCase := customerapp_marketplace.NewMarketplaceUseCase(customerapp_marketplace.MarketplaceUseCaseProperty{
		Logger:            logger,
		Timeout:           c.Application.Timeout,
		ListingRepository: listingRepo,
		TicketRepository:  ticketRepo,
		Publisher:         publisher,
	})
	customerapp_marketplace.InitHTTPHandler(router, customerSessionMiddleware, validate, marketplaceUseCase)

	// admin's app
	reportingRepo := adminapp_reporting.NewReportingRepository(logger, psqldb)
	reportingUseCase := adminapp_reporting.NewReportingUseCase(adminapp_reporting.ReportingUseCaseProperty{
		Logger:              logger,
		Timeout:             c.Application.Timeout,
		ReportingRepository: reportingRepo,
		ListingRepository:   listingRepo,
	})
	adminapp_reporting.InitHTTPHandler(router, adminSessionMiddleware, reportingUseCase)

	handler := middleware.SetChain(
		router,
		cors.New(cors.Options{
			AllowedOrigins:   c.CORS.AllowedOrigins,
			AllowedMethods:   c.CORS.AllowedMethods,
			AllowedHeaders:   c.CORS.AllowedHeaders,
			ExposedHeaders:   c.CORS.ExposedHeaders,
			MaxAge:           c.CORS.MaxAge,
			AllowCredentials: c.CORS.AllowCredentials,
		}).Handler,
	)

	srv := &server.Server{
		Server: http.Server{
			Addr:    fmt.Sprintf(":%d", c.Application.Port),
			Handler: handler,
		},
		Logger: logger,
	}

	go func() {
		srv.ListenAndServe()
	}()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm

	srv.Shutdown(ctx)
	publisher.Close()
	cloudTask.Close()
	psqldb.Close()
	rc.Close()
	mon.Stop(ctx)
}
