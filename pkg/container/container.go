package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"storefront-backend/internal/config"
	addresshandler "storefront-backend/internal/domains/address/handler"
	addresssvc "storefront-backend/internal/domains/address/service"
	carthandler "storefront-backend/internal/domains/cart/handler"
	cartservice "storefront-backend/internal/domains/cart/service"
	checkouthandler "storefront-backend/internal/domains/checkout/handler"
	checkoutjob "storefront-backend/internal/domains/checkout/job"
	checkoutservice "storefront-backend/internal/domains/checkout/service"
	orderservice "storefront-backend/internal/domains/order/service"
	"storefront-backend/internal/domains/payment/gateway"
	"storefront-backend/internal/domains/payment/gateway/mock"
	"storefront-backend/internal/domains/payment/gateway/paypal"
	"storefront-backend/internal/domains/payment/gateway/stripe"
	paymentmodel "storefront-backend/internal/domains/payment/model"
	paymentrepo "storefront-backend/internal/domains/payment/repository"
	paymentsvc "storefront-backend/internal/domains/payment/service"
	"storefront-backend/internal/domains/pricing"
	sessionrepo "storefront-backend/internal/domains/session/repository"
	sessionsvc "storefront-backend/internal/domains/session/service"
	infraCache "storefront-backend/internal/infrastructure/cache"
	"storefront-backend/internal/infrastructure/database"
	"storefront-backend/internal/infrastructure/queue"
	"storefront-backend/pkg/cache"
	"storefront-backend/pkg/jwt"
)

// Container holds all application dependencies
// Pattern: Dependency Injection Container
type Container struct {
	// ========================================
	// CONFIGURATION
	// ========================================
	Config *config.Config

	// ========================================
	// INFRASTRUCTURE
	// ========================================
	DB          *database.PostgresDB // PostgreSQL connection pool
	Cache       cache.Cache          // Redis cache (interface)
	JWTManager  *jwt.Manager         // session credential signer
	AsynqClient *asynq.Client        // background task producer

	// ========================================
	// REPOSITORIES (Data Access Layer)
	// ========================================
	SessionRepo sessionrepo.Repository
	AttemptRepo paymentrepo.AttemptRepository

	// ========================================
	// UPSTREAM CLIENTS
	// ========================================
	PriceOracle   *pricing.Client
	AddressLookup *addresssvc.Client
	OrderAPI      *orderservice.Client

	// ========================================
	// SERVICES (Business Logic Layer)
	// ========================================
	SessionService  *sessionsvc.Service
	PaymentRegistry *gateway.Registry
	PaymentService  paymentsvc.PaymentService
	CartRegistry    *cartservice.Registry
	CartService     cartservice.ServiceInterface
	CheckoutService *checkoutservice.CheckoutService

	// ========================================
	// HANDLERS (Presentation Layer)
	// ========================================
	CartHandler     *carthandler.Handler
	AddressHandler  *addresshandler.Handler
	CheckoutHandler *checkouthandler.Handler

	// ========================================
	// JOB HANDLERS (worker)
	// ========================================
	ClearSessionJob   *checkoutjob.ClearSessionHandler
	ExpireAttemptsJob *checkoutjob.ExpireAttemptsHandler
}

// NewContainer creates and initializes all dependencies
// Order matters: config → infrastructure → repositories → services → handlers
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (env: %s)", cfg.App.Environment)

	// ========================================
	// STEP 2: INITIALIZE INFRASTRUCTURE
	// ========================================
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// ========================================
	// STEP 3: INITIALIZE REPOSITORIES
	// ========================================
	c.initRepositories()
	log.Println("✅ Repositories initialized")

	// ========================================
	// STEP 4: INITIALIZE SERVICES
	// ========================================
	if err := c.initServices(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	log.Println("✅ Services initialized")

	// ========================================
	// STEP 5: INITIALIZE HANDLERS
	// ========================================
	c.initHandlers()
	log.Println("✅ Handlers initialized")

	log.Println("🎉 DI Container ready!")
	return c, nil
}

func (c *Container) initInfrastructure() error {
	// Database
	log.Println("🐘 Connecting to PostgreSQL...")
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	c.DB = database.NewPostgresDB(dbConfig)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.DB.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	log.Println("✅ PostgreSQL connected")

	// Redis holds every session, so it is required
	log.Println("🔴 Connecting to Redis...")
	redisCache := infraCache.NewRedisCache(
		c.Config.Redis.Host,
		c.Config.Redis.Password,
		c.Config.Redis.DB,
	)
	if rc, ok := redisCache.(*infraCache.RedisCache); ok {
		if err := rc.Connect(ctx); err != nil {
			c.DB.Close()
			return fmt.Errorf("failed to connect redis: %w", err)
		}
	}
	c.Cache = redisCache
	log.Println("✅ Redis connected")

	c.JWTManager = jwt.NewManager(c.Config.Session.Secret, c.Config.Session.TTL)
	c.AsynqClient = queue.NewClient(c.Config.Redis)
	log.Println("✅ Asynq client ready")

	return nil
}

func (c *Container) initRepositories() {
	c.SessionRepo = sessionrepo.NewCacheRepository(c.Cache, c.Config.Session.TTL)
	c.AttemptRepo = paymentrepo.NewPostgresRepository(c.DB.Pool)
}

func (c *Container) initServices() error {
	cfg := c.Config

	// Upstream clients share the default transport; each sets its own timeout
	c.PriceOracle = pricing.NewClient(cfg.PriceOracle.URL, cfg.PriceOracle.Timeout, nil)
	c.AddressLookup = addresssvc.NewClient(cfg.Address.LookupURL, cfg.Address.Timeout, nil)
	c.OrderAPI = orderservice.NewClient(cfg.OrderAPI.BaseURL, cfg.OrderAPI.Timeout, nil)

	c.SessionService = sessionsvc.NewService(c.SessionRepo)

	// Payment providers
	registry, err := c.buildPaymentRegistry()
	if err != nil {
		return err
	}
	c.PaymentRegistry = registry
	c.PaymentService = paymentsvc.NewPaymentService(registry, c.AttemptRepo, cfg.ReturnURL())

	// Cart
	c.CartRegistry = cartservice.NewRegistry(c.PriceOracle, c.SessionService, c.AddressLookup, cartservice.RegistryConfig{
		Policy:  cartservice.StalePolicy(cfg.Sync.StalePolicy),
		IdleTTL: cfg.Sync.WorkspaceIdleTTL,
		Autofill: addresssvc.AutofillConfig{
			Debounce:  cfg.Address.Debounce,
			MinLength: cfg.Address.MinLength,
		},
	})
	c.CartService = cartservice.NewCartService(c.CartRegistry, c.SessionService)

	// Checkout
	c.CheckoutService = checkoutservice.NewCheckoutService(
		checkoutservice.NewOrderBuilder(c.SessionService),
		c.PaymentService,
		c.AsynqClient,
		c.CartRegistry,
	)

	// Jobs
	c.ClearSessionJob = checkoutjob.NewClearSessionHandler(c.SessionService)
	c.ExpireAttemptsJob = checkoutjob.NewExpireAttemptsHandler(c.PaymentService, cfg.Job.AttemptExpiry)

	return nil
}

// buildPaymentRegistry wires the card and PayPal providers. Without a Stripe
// key, development runs against the in-memory card provider.
func (c *Container) buildPaymentRegistry() (*gateway.Registry, error) {
	cfg := c.Config

	var card gateway.Provider
	if cfg.Stripe.SecretKey != "" {
		p, err := stripe.NewProvider(c.OrderAPI, stripe.Config{APIKey: cfg.Stripe.SecretKey})
		if err != nil {
			return nil, err
		}
		card = p
	} else {
		if cfg.App.Environment == "production" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY is required in production")
		}
		log.Println("⚠️  STRIPE_SECRET_KEY not set, using mock card provider")
		card = mock.NewProvider(cfg.Payment.SinglePhaseProvider, paymentmodel.FlowSinglePhase)
	}

	return gateway.NewRegistry(
		cfg.Payment.SinglePhaseProvider,
		cfg.Payment.TwoPhaseProvider,
		card,
		paypal.NewProvider(c.OrderAPI),
	)
}

func (c *Container) initHandlers() {
	c.CartHandler = carthandler.NewHandler(c.CartService)
	c.AddressHandler = addresshandler.NewHandler(c.CartRegistry)
	c.CheckoutHandler = checkouthandler.NewHandler(c.CheckoutService)
}

// Cleanup closes all connections
// Call this in main() with defer
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("⚠️  Failed to close asynq client: %v", err)
		}
	}

	// Close database connections
	if c.DB != nil {
		c.DB.Close()
		log.Println("✅ Database connections closed")
	}

	// Close Redis connections
	if c.Cache != nil {
		if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
			if err := rc.Close(); err != nil {
				log.Printf("⚠️  Failed to close Redis: %v", err)
			} else {
				log.Println("✅ Redis connections closed")
			}
		}
	}

	log.Println("✅ Cleanup completed")
}
