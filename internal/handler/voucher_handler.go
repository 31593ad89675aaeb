package handler

import (
	"net/http"
	"strconv"
	"time"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type VoucherHandler struct {
	uc *usecase.VoucherUsecase
}

func NewVoucherHandler(uc *usecase.VoucherUsecase) *VoucherHandler {
	return &VoucherHandler{uc: uc}
}

type VoucherRequest struct {
	Code          string    `json:"code"`
	DiscountType  string    `json:"discount_type"`
	DiscountValue int64     `json:"discount_value"`
	MaxDiscount   *int64    `json:"max_discount"`
	MinOrderValue *int64    `json:"min_order_value"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	UsageLimit    *int64    `json:"usage_limit"`
	IsActive      *bool     `json:"is_active"`
}

type ApplyVoucherRequest struct {
	Code       string `json:"code"`
	OrderTotal int64  `json:"order_total"`
}

func (h *VoucherHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	//適用プレビューはログイン済みユーザー向け
	g := e.Group("/vouchers")
	g.Use(middleware.AuthJWT(cfg))
	g.POST("/apply", h.apply)

	//CRUDは管理者のみ
	ag := e.Group("/admin/vouchers")
	ag.Use(middleware.AuthJWT(cfg))
	ag.Use(middleware.AdminRoleGuard())

	ag.POST("", h.create)
	ag.GET("", h.list)
	ag.PUT("/:id", h.update)
	ag.DELETE("/:id", h.delete)
}

func (h *VoucherHandler) toInput(req VoucherRequest) usecase.VoucherInput {
	return usecase.VoucherInput{
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MaxDiscount:   req.MaxDiscount,
		MinOrderValue: req.MinOrderValue,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		UsageLimit:    req.UsageLimit,
		IsActive:      req.IsActive,
	}
}

func (h *VoucherHandler) create(c echo.Context) error {
	var req VoucherRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: usecase.CodeValidation})
	}

	out, err := h.uc.Create(c.Request().Context(), h.toInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"voucher": out})
}

func (h *VoucherHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"vouchers": out})
}

func (h *VoucherHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id", Code: usecase.CodeValidation})
	}

	var req VoucherRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: usecase.CodeValidation})
	}

	out, err := h.uc.Update(c.Request().Context(), id, h.toInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"voucher": out})
}

func (h *VoucherHandler) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id", Code: usecase.CodeValidation})
	}

	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "voucher deleted"})
}

func (h *VoucherHandler) apply(c echo.Context) error {
	var req ApplyVoucherRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: usecase.CodeValidation})
	}

	out, err := h.uc.Apply(c.Request().Context(), req.Code, req.OrderTotal)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"voucher": out})
}
