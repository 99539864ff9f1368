package config

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Application struct {
		Name        string
		Environment string
		Port        int
		Debug       bool
		Timeout     time.Duration
		TMFulfillment struct {
			BaseURL string
		}
	}

	CORS struct {
		AllowedOrigins   []string
		AllowedMethods   []string
		AllowedHeaders   []string
		ExposedHeaders   []string
		MaxAge           int
		AllowCredentials bool
	}

	Postgres struct {
		DSN             string
		MaxOpenConns    int
		MaxIdleConns    int
		ConnMaxLifetime time.Duration
	}

	Redis struct {
		Address  string
		Password string
		DB       int
	}

	Kafka struct {
		BootstrapServers string
		ClientID         string
	}

	Stripe struct {
		BaseURL            string
		SecretKey          string
		WebhookSecret      string
		SignatureTolerance time.Duration
	}

	JWT struct {
		PrivateKey []byte
		PublicKey  []byte
	}

	Order struct {
		Expiration              time.Duration
		ServiceChargePercentage float64
		// RestockOnRefund returns refunded seats to the sale pool. Seats
		// sold stay sold unless this is switched on.
		RestockOnRefund bool
	}

	Ticket struct {
		SigningSecret string
	}

	GCP struct {
		ProjectID      string
		ServiceAccount []byte
	}
}

var (
	c    *Config
	once sync.Once
)

// Get loads the configuration from the environment once and returns it.
func Get() *Config {
	once.Do(func() {
		v := viper.New()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		v.SetDefault("application.name", "tm-fulfillment")
		v.SetDefault("application.environment", "development")
		v.SetDefault("application.port", 9100)
		v.SetDefault("application.debug", false)
		v.SetDefault("application.timeout", "30s")
		v.SetDefault("application.baseurl", "http://localhost:9100")

		v.SetDefault("cors.allowedorigins", []string{"*"})
		v.SetDefault("cors.allowedmethods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
		v.SetDefault("cors.allowedheaders", []string{"Authorization", "Content-Type"})
		v.SetDefault("cors.exposedheaders", []string{"X-Trace-Id"})
		v.SetDefault("cors.maxage", 3600)
		v.SetDefault("cors.allowcredentials", true)

		v.SetDefault("postgres.dsn", "postgres://localhost:5432/tm_fulfillment?sslmode=disable")
		v.SetDefault("postgres.maxopenconns", 25)
		v.SetDefault("postgres.maxidleconns", 5)
		v.SetDefault("postgres.connmaxlifetime", "30m")

		v.SetDefault("redis.address", "localhost:6379")
		v.SetDefault("redis.password", "")
		v.SetDefault("redis.db", 0)

		v.SetDefault("kafka.bootstrapservers", "localhost:9092")
		v.SetDefault("kafka.clientid", "tm-fulfillment")

		v.SetDefault("stripe.baseurl", "https://api.stripe.com")
		v.SetDefault("stripe.signaturetolerance", "5m")

		v.SetDefault("order.expiration", "15m")
		v.SetDefault("order.servicechargepercentage", 5.0)
		v.SetDefault("order.restockonrefund", false)

		c = &Config{}
		c.Application.Name = v.GetString("application.name")
		c.Application.Environment = v.GetString("application.environment")
		c.Application.Port = v.GetInt("application.port")
		c.Application.Debug = v.GetBool("application.debug")
		c.Application.Timeout = v.GetDuration("application.timeout")
		c.Application.TMFulfillment.BaseURL = v.GetString("application.baseurl")

		c.CORS.AllowedOrigins = v.GetStringSlice("cors.allowedorigins")
		c.CORS.AllowedMethods = v.GetStringSlice("cors.allowedmethods")
		c.CORS.AllowedHeaders = v.GetStringSlice("cors.allowedheaders")
		c.CORS.ExposedHeaders = v.GetStringSlice("cors.exposedheaders")
		c.CORS.MaxAge = v.GetInt("cors.maxage")
		c.CORS.AllowCredentials = v.GetBool("cors.allowcredentials")

		c.Postgres.DSN = v.GetString("postgres.dsn")
		c.Postgres.MaxOpenConns = v.GetInt("postgres.maxopenconns")
		c.Postgres.MaxIdleConns = v.GetInt("postgres.maxidleconns")
		c.Postgres.ConnMaxLifetime = v.GetDuration("postgres.connmaxlifetime")

		c.Redis.Address = v.GetString("redis.address")
		c.Redis.Password = v.GetString("redis.password")
		c.Redis.DB = v.GetInt("redis.db")

		c.Kafka.BootstrapServers = v.GetString("kafka.bootstrapservers")
		c.Kafka.ClientID = v.GetString("kafka.clientid")

		c.Stripe.BaseURL = v.GetString("stripe.baseurl")
		c.Stripe.SecretKey = v.GetString("stripe.secretkey")
		c.Stripe.WebhookSecret = v.GetString("stripe.webhooksecret")
		c.Stripe.SignatureTolerance = v.GetDuration("stripe.signaturetolerance")

		c.JWT.PrivateKey = []byte(v.GetString("jwt.privatekey"))
		c.JWT.PublicKey = []byte(v.GetString("jwt.publickey"))

		c.Order.Expiration = v.GetDuration("order.expiration")
		c.Order.ServiceChargePercentage = v.GetFloat64("order.servicechargepercentage")
		c.Order.RestockOnRefund = v.GetBool("order.restockonrefund")

		c.Ticket.SigningSecret = v.GetString("ticket.signingsecret")

		c.GCP.ProjectID = v.GetString("gcp.projectid")
		c.GCP.ServiceAccount = []byte(v.GetString("gcp.serviceaccount"))
	})

	return c
}
