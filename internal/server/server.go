package server

import (
	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// New はechoアプリを組み立てる。起動（Start）は呼び出し側の責務
func New(
	cfg config.Config,
	orderH *handler.OrderHandler,
	adminOrderH *handler.AdminOrderHandler,
	voucherH *handler.VoucherHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	//devのときだけ500の詳細を外に出す（writeError側が参照する）
	e.Debug = cfg.GoEnv == "dev"

	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	orderH.RegisterRoutes(e, cfg)
	adminOrderH.RegisterRoutes(e, cfg)
	voucherH.RegisterRoutes(e, cfg)

	return e
}
