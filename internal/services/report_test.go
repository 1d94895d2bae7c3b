package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/types"
)

type fakeTaskRepo struct{}

func (r *fakeTaskRepo) GetTasks(ctx context.Context, filter types.Filter) ([]entities.Task, uint64, error) {
	return nil, 0, nil
}
func (r *fakeTaskRepo) FindTask(ctx context.Context, id uint64) (*entities.Task, error) {
	return nil, apperrors.ErrNotFound
}
func (r *fakeTaskRepo) CreateTask(ctx context.Context, task entities.Task) (uint64, error) {
	return 0, nil
}
func (r *fakeTaskRepo) UpdateTask(ctx context.Context, task entities.Task) error { return nil }
func (r *fakeTaskRepo) SoftDeleteTask(ctx context.Context, id uint64, reason string) error {
	return nil
}
func (r *fakeTaskRepo) GetStatistics(ctx context.Context) (*dto.TaskStatisticsDTO, error) {
	return &dto.TaskStatisticsDTO{}, nil
}
func (r *fakeTaskRepo) FinancialReport(ctx context.Context, from, to string) ([]dto.FinancialReportRowDTO, error) {
	return nil, nil
}

func TestGenerateEquipmentXLSX(t *testing.T) {
	repo := newFakeEquipmentRepo()
	serial := "2304150087"
	repo.put(entities.Equipment{
		Type: "DE-275RSS", Manufacturer: "DAREX ENERGY", SerialNumber: &serial,
		Quantity: 1, Status: entities.StatusInStock,
		CurrentWarehouseID: 1, CurrentWarehouseName: "Основний склад",
		UnitPrice: 1250000, AddedBy: "Петренко",
	})
	svc := NewReportService(repo, &fakeTaskRepo{}, zap.NewNop())

	f, err := svc.GenerateEquipmentXLSX(context.Background(), types.Filter{})
	require.NoError(t, err)

	// Заголовок и строка данных читаются обратно.
	header, err := f.GetCellValue("Обладнання", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Тип", header)

	typeCell, err := f.GetCellValue("Обладнання", "B2")
	require.NoError(t, err)
	assert.Equal(t, "DE-275RSS", typeCell)

	serialCell, err := f.GetCellValue("Обладнання", "D2")
	require.NoError(t, err)
	assert.Equal(t, serial, serialCell)

	statusCell, err := f.GetCellValue("Обладнання", "G2")
	require.NoError(t, err)
	assert.Equal(t, "На складі", statusCell)
}

func TestGenerateEquipmentCardPDF(t *testing.T) {
	repo := newFakeEquipmentRepo()
	serial := "2304150087"
	eq := repo.put(entities.Equipment{
		Type: "DE-275RSS", Manufacturer: "DAREX ENERGY", SerialNumber: &serial,
		Quantity: 1, Status: entities.StatusInStock,
		CurrentWarehouseID: 1, CurrentWarehouseName: "Основний склад",
		Nameplate: &entities.Nameplate{
			StandbyPower: "275 KVA",
			Phase:        3,
			Frequency:    50,
		},
		MovementHistory: []entities.MovementEntry{{
			FromWarehouseName: "Основний склад",
			ToWarehouseName:   "Склад сервісу",
			Quantity:          1,
			MovedBy:           "Петренко",
		}},
	})
	svc := NewReportService(repo, &fakeTaskRepo{}, zap.NewNop())

	pdfBytes, err := svc.GenerateEquipmentCardPDF(context.Background(), eq.ID)
	require.NoError(t, err)
	require.NotEmpty(t, pdfBytes)
	// PDF начинается с сигнатуры формата.
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))

	_, err = svc.GenerateEquipmentCardPDF(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
