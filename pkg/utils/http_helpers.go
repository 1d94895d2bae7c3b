package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/types"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HTTPResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
}

const (
	DefaultLimit = 200
	MaxLimit     = 500
)

func StringPtr(s string) *string {
	return &s
}

func ParseFilterFromQuery(values url.Values) types.Filter {
	filterReq := types.Filter{
		Sort:   make(map[string]string),
		Filter: make(map[string]interface{}),
		Limit:  DefaultLimit,
		Page:   1,
	}

	if limitStr := values.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > MaxLimit {
				filterReq.Limit = MaxLimit
			} else {
				filterReq.Limit = l
			}
		}
	}

	if pageStr := values.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filterReq.Page = p
		}
	}

	if offsetStr := values.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filterReq.Offset = o
		}
	} else {
		filterReq.Offset = (filterReq.Page - 1) * filterReq.Limit
	}

	if values.Get("withPagination") == "false" {
		filterReq.WithPagination = false
	} else {
		filterReq.WithPagination = true
	}

	for key, vals := range values {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}

		if key == "search" {
			filterReq.Search = vals[0]
			continue
		}

		if strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]") {
			field := key[5 : len(key)-1]
			direction := strings.ToLower(vals[0])
			if direction == "asc" || direction == "desc" {
				filterReq.Sort[field] = direction
			}
			continue
		}

		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
			field := key[7 : len(key)-1]

			if existing, ok := filterReq.Filter[field]; ok {
				filterReq.Filter[field] = fmt.Sprintf("%v,%s", existing, vals[0])
			} else {
				filterReq.Filter[field] = vals[0]
			}
			continue
		}

		// Плоские параметры вида ?status=in_stock&warehouse=5 фронт шлёт наравне
		// с filter[...], складываем их туда же.
		switch key {
		case "status", "warehouse", "warehouse_id", "category_id", "region", "testing_status", "doc_type":
			filterReq.Filter[key] = vals[0]
		}
	}

	return filterReq
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, total ...uint64) error {
	response := &HTTPResponse{Status: true, Message: message}
	withPagination, _ := strconv.ParseBool(ctx.QueryParam("withPagination"))
	if withPagination && len(total) > 0 {
		filter := ParseFilterFromQuery(ctx.Request().URL.Query())
		totalPages := 0
		if filter.Limit > 0 {
			totalPages = int(total[0]) / filter.Limit
			if int(total[0])%filter.Limit > 0 {
				totalPages++
			}
		}
		pagination := types.Pagination{
			TotalCount: total[0],
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalPages: totalPages,
		}
		response.Body = map[string]interface{}{"list": body, "pagination": pagination}
	} else {
		response.Body = body
	}
	return ctx.JSON(code, response)
}

// ErrorResponse переводит ошибку в JSON-конверт. Поле error дублирует message -
// фронт читает именно его.
func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		if httpErr.Err != nil {
			logger.Error("HTTP Error",
				zap.Int("code", httpErr.Code),
				zap.String("message", httpErr.Message),
				zap.Error(httpErr.Err),
				zap.Any("context", httpErr.Context),
			)
		}

		response := map[string]interface{}{
			"status":  false,
			"message": httpErr.Message,
			"error":   httpErr.Message,
		}
		if httpErr.Details != nil {
			response["body"] = httpErr.Details
			if m, ok := httpErr.Details.(map[string]interface{}); ok {
				if existing, ok := m["existing"]; ok {
					response["existing"] = existing
				}
			}
		}
		return c.JSON(httpErr.Code, response)
	}

	var capErr *apperrors.CapacityError
	if errors.As(err, &capErr) {
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"status":    false,
			"message":   capErr.Error(),
			"error":     capErr.Error(),
			"requested": capErr.Requested,
			"available": capErr.Available,
		})
	}

	var transErr *apperrors.InvalidTransitionError
	if errors.As(err, &transErr) {
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"status": false, "message": transErr.Error(), "error": transErr.Error(),
		})
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var msgs []string
		for _, e := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("Поле '%s' не прошло проверку '%s'", e.Field(), e.Tag()))
		}
		msg := "Ошибка валидации: " + strings.Join(msgs, "; ")
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"status": false, "message": msg, "error": msg})
	}

	var inputErr *apperrors.InvalidInputError
	if errors.As(err, &inputErr) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status": false, "message": inputErr.Message, "error": inputErr.Message,
		})
	}

	if errors.Is(err, apperrors.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"status": false, "message": err.Error(), "error": err.Error(),
		})
	}

	for sentinel, code := range sentinelCodes {
		if errors.Is(err, sentinel) {
			return c.JSON(code, map[string]interface{}{
				"status": false, "message": err.Error(), "error": err.Error(),
			})
		}
	}

	logger.Error("Unexpected Error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"status":  false,
		"message": "Внутренняя ошибка сервера",
		"error":   "Внутренняя ошибка сервера",
	})
}

var sentinelCodes = map[error]int{
	apperrors.ErrEmptyAuthHeader:     http.StatusUnauthorized,
	apperrors.ErrInvalidAuthHeader:   http.StatusUnauthorized,
	apperrors.ErrInvalidToken:        http.StatusUnauthorized,
	apperrors.ErrTokenExpired:        http.StatusUnauthorized,
	apperrors.ErrTokenIsNotAccess:    http.StatusUnauthorized,
	apperrors.ErrTokenIsNotRefresh:   http.StatusUnauthorized,
	apperrors.ErrInvalidCredentials:  http.StatusUnauthorized,
	apperrors.ErrUnauthorized:        http.StatusUnauthorized,
	apperrors.ErrForbidden:           http.StatusForbidden,
	apperrors.ErrEquipmentReserved:   http.StatusConflict,
	apperrors.ErrEquipmentNotInStock: http.StatusConflict,
	apperrors.ErrDuplicateSerial:     http.StatusConflict,
	apperrors.ErrSameWarehouse:       http.StatusBadRequest,
	apperrors.ErrDeadlineInPast:      http.StatusBadRequest,
	apperrors.ErrCategoryHasChildren: http.StatusConflict,
	apperrors.ErrCategoryInUse:       http.StatusConflict,
	apperrors.ErrReasonRequired:      http.StatusBadRequest,
	apperrors.ErrWarehouseNotEmpty:   http.StatusConflict,
	apperrors.ErrBadRequest:          http.StatusBadRequest,
}
