package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	"operations-system/internal/services"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/utils"
)

type DocumentController struct {
	documentService services.DocumentServiceInterface
	logger          *zap.Logger
}

func NewDocumentController(documentService services.DocumentServiceInterface, logger *zap.Logger) *DocumentController {
	return &DocumentController{documentService: documentService, logger: logger}
}

func docTypeFromParam(ctx echo.Context) (entities.DocType, error) {
	docType := entities.DocType(ctx.Param("docType"))
	if !docType.Valid() {
		return "", apperrors.NewInvalidInputError("невідомий тип документа «%s»", ctx.Param("docType"))
	}
	return docType, nil
}

func (c *DocumentController) GetDocuments(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	docType, err := docTypeFromParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	filter := utils.ParseFilterFromQuery(ctx.QueryParams())

	list, total, err := c.documentService.GetDocuments(reqCtx, docType, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Список документов получен", http.StatusOK, total)
}

func (c *DocumentController) FindDocument(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.documentService.FindDocument(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Документ найден", http.StatusOK)
}

func (c *DocumentController) CreateDocument(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	docType, err := docTypeFromParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.CreateDocumentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewInvalidInputError("неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.documentService.CreateDocument(reqCtx, docType, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Документ создан", http.StatusCreated)
}

// CompleteInventory закрывает черновик инвентаризации фактическими количествами.
func (c *DocumentController) CompleteInventory(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload struct {
		Items []entities.DocumentItem `json:"items" validate:"required,min=1"`
	}
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewInvalidInputError("неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.documentService.CompleteInventory(reqCtx, id, payload.Items)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Инвентаризация закрыта", http.StatusOK)
}
