package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"operations-system/internal/services"
	"operations-system/pkg/utils"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

// ExportEquipment отдаёт выгрузку обладнання в XLSX с учётом фильтров списка.
func (c *ReportController) ExportEquipment(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.QueryParams())

	f, err := c.reportService.GenerateEquipmentXLSX(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	fileName := fmt.Sprintf("equipment_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}

func (c *ReportController) EquipmentCard(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	pdfBytes, err := c.reportService.GenerateEquipmentCardPDF(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	ctx.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=equipment_card_%d.pdf", id))
	return ctx.Blob(http.StatusOK, "application/pdf", pdfBytes)
}

func (c *ReportController) CostReport(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var warehouseID *uint64
	if raw := ctx.QueryParam("warehouse_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		warehouseID = &id
	}

	rows, err := c.reportService.CostReport(reqCtx, warehouseID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, rows, "Отчет по стоимости сформирован", http.StatusOK)
}

func (c *ReportController) FinancialReport(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	from := ctx.QueryParam("from")
	to := ctx.QueryParam("to")

	rows, err := c.reportService.FinancialReport(reqCtx, from, to)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, rows, "Финансовый отчет сформирован", http.StatusOK)
}
