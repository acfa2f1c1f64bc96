package api

import (
	"net/http"
	"time"

	"nft-marketplace/internal/api/handlers"
	"nft-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const maxUploadBytes = "50M"

type Handlers struct {
	Auctions  *handlers.AuctionHandler
	Listings  *handlers.ListingHandler
	Users     *handlers.UserHandler
	Market    *handlers.MarketHandler
	Sync      *handlers.SyncHandler
	WebSocket *handlers.WebSocketHandler
}

type Options struct {
	Service      string
	Version      string
	AllowOrigins []string
}

func NewRouter(h Handlers, opts Options, log logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				log.Error("Request", "id", v.RequestID, "method", v.Method, "uri", v.URI,
					"status", v.Status, "latency", v.Latency.String(), "remote_ip", v.RemoteIP, "error", v.Error)
				return nil
			}
			log.Info("Request", "id", v.RequestID, "method", v.Method, "uri", v.URI,
				"status", v.Status, "latency", v.Latency.String(), "remote_ip", v.RemoteIP)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch,
			http.MethodPost, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestedWith,
		},
		MaxAge: 86400,
	}))

	api := e.Group("/api")

	auctions := api.Group("/auctions")
	auctions.GET("", h.Auctions.ListAuctions)
	auctions.GET("/:id", h.Auctions.GetAuction)
	auctions.POST("/:id/bid", h.Auctions.PlaceBid)
	auctions.POST("/:id/finalize", h.Auctions.FinalizeAuction)
	auctions.DELETE("/:id", h.Auctions.CancelAuction)
	auctions.GET("/:id/bids", h.Auctions.BidHistory)

	listings := api.Group("/listings")
	listings.GET("", h.Listings.ListListings)
	listings.POST("", h.Listings.CreateListing)
	listings.GET("/:id", h.Listings.GetListing)
	listings.PUT("/:id", h.Listings.UpdateListing)
	listings.DELETE("/:id", h.Listings.CancelListing)

	api.GET("/users/:address", h.Users.GetUser)
	api.PUT("/users/:address", h.Users.UpsertUser)

	api.GET("/price", h.Market.GetPrice)
	api.POST("/ipfs/upload", h.Market.Upload, middleware.BodyLimit(maxUploadBytes))

	api.GET("/sync/status", h.Sync.Status)
	api.POST("/sync/start", h.Sync.Start)
	api.POST("/sync/stop", h.Sync.Stop)

	e.GET("/ws/auctions/:id", h.WebSocket.HandleConnection)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   opts.Service,
			"version":   opts.Version,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	return e
}
