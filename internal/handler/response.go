package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	var ve *validator.Error
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request",
			Code:    string(usecase.KindValidation),
			Details: ve.Fields,
		})
	}

	if he, isHTTP := usecase.AsHTTPError(err); isHTTP {
		if he.Kind == usecase.KindInternal || he.Kind == usecase.KindUpstream {
			middleware.Logger(c).Error("request failed", zap.String("code", string(he.Kind)), zap.Error(err))
		}
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Code: string(he.Kind), Details: he.Details})
	}

	//500
	middleware.Logger(c).Error("unhandled error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: string(usecase.KindInternal)})
}

func badRequest(c echo.Context, msg string) error {
	return writeError(c, usecase.NewHTTPError(usecase.KindValidation, msg))
}

// bodyを読み込んで validate タグを検証する
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return usecase.NewHTTPError(usecase.KindValidation, "invalid body")
	}
	return c.Validate(req)
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ?page=&limit= （未指定はdef）
func queryInt(c echo.Context, name string, def int) (int, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
