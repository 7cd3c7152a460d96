package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"labreserve/app/echoServer/controller/auth"
	"labreserve/app/echoServer/controller/item"
	"labreserve/app/echoServer/controller/reservation"
	"labreserve/app/echoServer/controller/user"
	"labreserve/model"
)

type C struct {
	Auth        *auth.Controller
	User        *user.Controller
	Item        *item.Controller
	Reservation *reservation.Controller
	JWTSecret   string
}

func Register(e *echo.Echo, c C) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public
	e.POST("/api/auth/register", c.Auth.Register)
	e.POST("/api/auth/login", c.Auth.Login)

	// Authenticated
	api := e.Group("/api")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))

	admin := RequireRoles(model.RoleAdmin, model.RoleSuper)
	super := RequireRoles(model.RoleSuper)

	// Users
	api.GET("/users", c.User.List, admin)
	api.GET("/users/:id", c.User.Get, admin)
	api.PATCH("/users/:id/role", c.User.UpdateRole, super)
	api.PATCH("/users/:id/email", c.User.UpdateEmail, admin)
	api.DELETE("/users/:id", c.User.Delete, super)
	api.GET("/users/:id/reservations", c.Reservation.ListByUser)

	// Inventory
	api.GET("/inventory", c.Item.List)
	api.GET("/inventory/:id", c.Item.Get)
	api.GET("/inventory/:id/reservations", c.Reservation.ListByItem)
	api.POST("/inventory", c.Item.Create, admin)
	api.POST("/inventory/:id/children", c.Item.AddChild, admin)
	api.POST("/inventory/:id/retire", c.Item.Retire, admin)
	api.PATCH("/inventory/:id/quantity", c.Item.AdjustQuantity, admin)
	api.PATCH("/inventory/:id/availability", c.Item.SetAvailability, admin)
	api.POST("/inventory/children/:childId/images", c.Item.AttachImage, admin)

	// Reservations
	api.GET("/reservations", c.Reservation.List, admin)
	api.GET("/reservations/:id", c.Reservation.Get, admin)
	api.POST("/reservations", c.Reservation.Create)
	api.PATCH("/reservations/:id", c.Reservation.UpdateStatus)
	api.DELETE("/reservations/:id", c.Reservation.Delete, admin)
}
