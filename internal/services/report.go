package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"operations-system/internal/dto"
	"operations-system/internal/repositories"
	"operations-system/pkg/types"
)

type ReportServiceInterface interface {
	GenerateEquipmentXLSX(ctx context.Context, filter types.Filter) (*excelize.File, error)
	GenerateEquipmentCardPDF(ctx context.Context, id uint64) ([]byte, error)
	CostReport(ctx context.Context, warehouseID *uint64) ([]dto.CostReportRowDTO, error)
	FinancialReport(ctx context.Context, from, to string) ([]dto.FinancialReportRowDTO, error)
}

type ReportService struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	taskRepo      repositories.TaskRepositoryInterface
	logger        *zap.Logger
}

func NewReportService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	taskRepo repositories.TaskRepositoryInterface,
	logger *zap.Logger,
) ReportServiceInterface {
	return &ReportService{
		equipmentRepo: equipmentRepo,
		taskRepo:      taskRepo,
		logger:        logger,
	}
}

var equipmentReportHeaders = []interface{}{
	"№", "Тип", "Виробник", "Серійний номер", "Кількість",
	"Склад", "Статус", "Ціна за од.", "Додав", "Дата додавання",
}

// GenerateEquipmentXLSX выгружает список обладнання по текущему фильтру.
func (s *ReportService) GenerateEquipmentXLSX(ctx context.Context, filter types.Filter) (*excelize.File, error) {
	filter.WithPagination = false
	list, _, err := s.equipmentRepo.GetEquipments(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Обладнання"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &equipmentReportHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "J1", style)

	for i := range list {
		eq := &list[i]
		serial := ""
		if eq.SerialNumber != nil {
			serial = *eq.SerialNumber
		}
		added := ""
		if eq.CreatedAt != nil {
			added = eq.CreatedAt.Format("02.01.2006")
		}
		row := []interface{}{
			eq.ID, eq.Type, eq.Manufacturer, serial, eq.Quantity,
			eq.CurrentWarehouseName, eq.Status.Label(), eq.UnitPrice, eq.AddedBy, added,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetSheetRow(sheet, cell, &row)
	}

	f.SetColWidth(sheet, "B", "C", 25)
	f.SetColWidth(sheet, "D", "D", 20)
	f.SetColWidth(sheet, "F", "G", 22)
	f.SetColWidth(sheet, "I", "J", 18)

	s.logger.Info("сформирована выгрузка XLSX", zap.Int("rows", len(list)))
	return f, nil
}

// cp1251Translator перекодирует UTF-8 в cp1251 для кириллицы встроенных
// шрифтов gofpdf. Дескриптор cp1251 в gofpdf не встроен, поэтому карта
// берётся из x/text, без файла рядом с бинарём.
func cp1251Translator() func(string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1251.NewEncoder())
	return func(s string) string {
		out, err := enc.String(s)
		if err != nil {
			return s
		}
		return out
	}
}

// GenerateEquipmentCardPDF формирует паспортную карточку единицы обладнання.
func (s *ReportService) GenerateEquipmentCardPDF(ctx context.Context, id uint64) ([]byte, error) {
	eq, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := cp1251Translator()
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, tr(fmt.Sprintf("Картка обладнання №%d", eq.ID)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, tr("Основні дані"), "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	line := func(label, value string) {
		pdf.CellFormat(60, 7, tr(label), "LB", 0, "L", false, 0, "")
		pdf.CellFormat(130, 7, tr(value), "RB", 1, "L", false, 0, "")
	}
	serial := "—"
	if eq.SerialNumber != nil {
		serial = *eq.SerialNumber
	}
	line("Тип", eq.Type)
	line("Виробник", eq.Manufacturer)
	line("Серійний номер", serial)
	line("Кількість", fmt.Sprintf("%d", eq.Quantity))
	line("Склад", eq.CurrentWarehouseName)
	line("Статус", eq.Status.Label())
	line("Статус тестування", eq.TestingStatus.Label())
	pdf.Ln(4)

	if np := eq.Nameplate; np != nil {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(190, 8, tr("Паспортні дані"), "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 11)
		if np.StandbyPower != "" {
			line("Standby power", np.StandbyPower)
		}
		if np.PrimePower != "" {
			line("Prime power", np.PrimePower)
		}
		if np.Phase != 0 {
			line("Фази", fmt.Sprintf("%d", np.Phase))
		}
		if np.Voltage != "" {
			line("Напруга, В", np.Voltage)
		}
		if np.Amperage != 0 {
			line("Струм, А", fmt.Sprintf("%d", np.Amperage))
		}
		if np.CosPhi != 0 {
			line("Коефіцієнт потужності", fmt.Sprintf("%.2f", np.CosPhi))
		}
		if np.RPM != 0 {
			line("Оберти, об/хв", fmt.Sprintf("%d", np.RPM))
		}
		if np.Frequency != 0 {
			line("Частота, Гц", fmt.Sprintf("%d", np.Frequency))
		}
		if np.Dimensions != "" {
			line("Габарити, мм", np.Dimensions)
		}
		if np.Weight != 0 {
			line("Вага, кг", fmt.Sprintf("%d", np.Weight))
		}
		if np.ManufactureDate != "" {
			line("Рік випуску", np.ManufactureDate)
		}
		pdf.Ln(4)
	}

	if len(eq.MovementHistory) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(190, 8, tr("Історія переміщень"), "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(30, 7, tr("Дата"), "1", 0, "C", true, 0, "")
		pdf.CellFormat(60, 7, tr("Звідки"), "1", 0, "C", true, 0, "")
		pdf.CellFormat(60, 7, tr("Куди"), "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 7, tr("Хто"), "1", 1, "C", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, m := range eq.MovementHistory {
			pdf.CellFormat(30, 7, m.Date.Format("02.01.2006"), "1", 0, "C", false, 0, "")
			pdf.CellFormat(60, 7, tr(m.FromWarehouseName), "1", 0, "L", false, 0, "")
			pdf.CellFormat(60, 7, tr(m.ToWarehouseName), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 7, tr(m.MovedBy), "1", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error("ошибка генерации PDF", zap.Error(err))
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ReportService) CostReport(ctx context.Context, warehouseID *uint64) ([]dto.CostReportRowDTO, error) {
	return s.equipmentRepo.CostReport(ctx, warehouseID)
}

func (s *ReportService) FinancialReport(ctx context.Context, from, to string) ([]dto.FinancialReportRowDTO, error) {
	return s.taskRepo.FinancialReport(ctx, from, to)
}
