package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/models"
	"github.com/Skotchmaster/sale/internal/service"
	pkgdb "github.com/Skotchmaster/sale/pkg/db"
	"github.com/Skotchmaster/sale/pkg/logging"
	"github.com/Skotchmaster/sale/pkg/metrics"
	authmw "github.com/Skotchmaster/sale/pkg/middleware/auth"
	"github.com/Skotchmaster/sale/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/sale/pkg/middleware/logging"
	"github.com/Skotchmaster/sale/pkg/tokens"
)

type Deps struct {
	DB           *gorm.DB
	AccessSecret []byte
	Refresher    authmw.Refresher
	Metrics      *metrics.ServerMetrics

	Auth     *AuthHTTP
	Category *CategoryHTTP
	Product  *ProductHTTP
	Order    *OrderHTTP
	Payment  *PaymentHTTP
	User     *UserHTTP
}

// New builds the echo instance with the middleware chain and every route.
func New(log *slog.Logger, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(loggingmw.RequestLogger(log))
	e.Use(middleware.Secure())
	e.Use(middleware.CORS())
	e.Use(csrf.Middleware(csrf.Config{
		AuthCookies: []string{tokens.AccessCookie, tokens.RefreshCookie},
		SkipPaths:   []string{service.APIAuth + "/login", service.APIAuth + "/register", service.APIAuth + "/refresh"},
	}))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := pkgdb.Ping(c.Request().Context(), d.DB); err != nil {
			logging.FromContext(c.Request().Context()).Warn("not_ready", "status", 503, "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	authed := []echo.MiddlewareFunc{
		authmw.AutoRefresh(d.AccessSecret, d.Refresher),
		authmw.JWT(d.AccessSecret),
	}
	admin := append(authed[:len(authed):len(authed)], authmw.RequireRole(string(models.RoleAdmin)))

	auth := e.Group(service.APIAuth)
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/change-password", d.Auth.ChangePassword, authed...)
	auth.POST("/logout", d.Auth.Logout, authed...)

	category := e.Group(service.APICategory)
	category.GET("", d.Category.List)
	category.GET("/by-name", d.Category.GetByName)
	category.GET("/:id", d.Category.Get)
	category.POST("", d.Category.Create, admin...)
	category.PUT("/:id", d.Category.Update, admin...)
	category.DELETE("/:id", d.Category.Delete, admin...)

	products := e.Group(service.APIProducts)
	products.GET("", d.Product.List)
	products.GET("/search", d.Product.Search)
	products.GET("/:id", d.Product.Get)
	products.GET("/export", d.Product.Export, admin...)
	products.POST("", d.Product.Create, admin...)
	products.PUT("/:id", d.Product.Update, admin...)
	products.DELETE("/:id", d.Product.Delete, admin...)

	orders := e.Group(service.APIOrders, authed...)
	orders.POST("", d.Order.Create)
	orders.GET("", d.Order.List)
	orders.GET("/ws", d.Order.Feed, authmw.RequireRole(string(models.RoleAdmin)))
	orders.GET("/:orderId", d.Order.Get)
	orders.PUT("/:orderId", d.Order.Update)
	orders.DELETE("/:orderId", d.Order.Delete)
	orders.POST("/:orderId/cancel", d.Order.Cancel)

	payments := e.Group(service.APIPayments, authed...)
	payments.POST("/:orderId/create", d.Payment.Create)
	payments.POST("/:orderId/pay", d.Payment.Pay)
	payments.GET("/by-order/:orderId", d.Payment.GetByOrder)
	payments.GET("/:paymentId", d.Payment.Get)
	payments.DELETE("/:paymentId", d.Payment.Delete)

	users := e.Group(service.APIUsers, authed...)
	users.GET("/filter", d.User.Search, authmw.RequireRole(string(models.RoleAdmin)))
	users.GET("/:id", d.User.Get)
	users.PUT("/:id", d.User.Update)
	users.DELETE("/:id", d.User.Delete, authmw.RequireRole(string(models.RoleAdmin)))
}
