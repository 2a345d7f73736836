package app

import (
	"github.com/vendora-dev/vendora-backend/internal/cart"
	"github.com/vendora-dev/vendora-backend/internal/coupons"
	"github.com/vendora-dev/vendora-backend/internal/locations"
	"github.com/vendora-dev/vendora-backend/internal/notify"
	"github.com/vendora-dev/vendora-backend/internal/products"
	"github.com/vendora-dev/vendora-backend/internal/requests"
	"github.com/vendora-dev/vendora-backend/internal/users"
	"github.com/vendora-dev/vendora-backend/internal/wallets"
	"github.com/vendora-dev/vendora-backend/pkg/config"
	"github.com/vendora-dev/vendora-backend/pkg/db"
	"github.com/vendora-dev/vendora-backend/pkg/logger"
	"github.com/vendora-dev/vendora-backend/pkg/redis"
)

// App bundles the wired storefront services. The chat transport and the
// cron worker both build on top of this container.
type App struct {
	Users     *users.Repository
	Products  *products.Repository
	Wallets   wallets.Service
	Locations locations.Service
	Cart      cart.Service
	Coupons   coupons.Service
	Requests  requests.Service
	Notifier  notify.Notifier
}

// New wires repositories and services against the shared clients. The
// notifier may be nil, in which case notifications go to the log.
func New(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client, notifier notify.Notifier, logg *logger.Logger) *App {
	conn := dbClient.DB()

	usersRepo := users.NewRepository(conn)
	productsRepo := products.NewRepository(conn)
	walletRepo := wallets.NewRepository(conn)
	locationRepo := locations.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	couponRepo := coupons.NewRepository(conn)
	requestRepo := requests.NewRepository(conn)

	if notifier == nil {
		notifier = notify.NewLogNotifier(logg)
	}

	couponSvc := coupons.NewService(couponRepo, cfg.Shop, logg)
	walletSvc := wallets.NewService(dbClient, walletRepo, requestRepo, logg)
	locationSvc := locations.NewService(dbClient, locationRepo, logg)
	cartSvc := cart.NewService(cartRepo, redisClient, couponSvc, productsRepo, cfg.Shop, logg)
	requestSvc := requests.NewService(
		dbClient,
		requestRepo,
		cartRepo,
		couponSvc,
		couponRepo,
		walletSvc,
		usersRepo,
		locationRepo,
		locationSvc,
		notifier,
		cfg.Shop,
		logg,
	)

	return &App{
		Users:     usersRepo,
		Products:  productsRepo,
		Wallets:   walletSvc,
		Locations: locationSvc,
		Cart:      cartSvc,
		Coupons:   couponSvc,
		Requests:  requestSvc,
		Notifier:  notifier,
	}
}
