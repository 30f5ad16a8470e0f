package echoServer

import (
	"net/http"

	"github.com/drstrox/Decentralised-Book-Rental-System/app/echoServer/controller/auth"
	"github.com/drstrox/Decentralised-Book-Rental-System/app/echoServer/controller/item"
	"github.com/drstrox/Decentralised-Book-Rental-System/app/echoServer/controller/rental"
	"github.com/drstrox/Decentralised-Book-Rental-System/app/echoServer/controller/wallet"
	"github.com/drstrox/Decentralised-Book-Rental-System/app/echoServer/jwtx"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth      *auth.Controller
	Item      *item.Controller
	Rental    *rental.Controller
	Wallet    *wallet.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Protected: everything below acts as a ledger identity
	prot := e.Group("/v1")
	prot.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	prot.Use(identityFromClaims())

	// Items: listing + read projections
	prot.POST("/items", c.Item.Create)
	prot.GET("/items", c.Item.List)
	prot.GET("/items/mine", c.Item.Mine)
	prot.GET("/items/:id", c.Item.Detail)

	// Rental state machine
	prot.POST("/items/:id/rent", c.Rental.Rent)
	prot.POST("/items/:id/return", c.Rental.Return)

	// Wallet
	prot.POST("/wallet/topups", c.Wallet.Topup)
	prot.GET("/wallet/balance", c.Wallet.Balance)
	prot.GET("/wallet/ledger", c.Wallet.Ledger)
}

// identityFromClaims lifts the JWT sub claim into the echo context as the
// caller's ledger identity.
func identityFromClaims() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			identity, err := jwtx.IdentityFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("identity", identity)
			ctx.Set("role", jwtx.RoleFromContext(ctx))
			return next(ctx)
		}
	}
}
