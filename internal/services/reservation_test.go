package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	apperrors "operations-system/pkg/errors"
)

func newTestReservationService(eqRepo *fakeEquipmentRepo) (ReservationServiceInterface, *fakeReservationRepo) {
	resRepo := newFakeReservationRepo()
	svc := NewReservationService(resRepo, eqRepo, &fakeTxManager{}, zap.NewNop())
	return svc, resRepo
}

func futureDeadline() string {
	return time.Now().AddDate(0, 0, 14).Format("2006-01-02")
}

func TestCreateReservationDeadlineInPast(t *testing.T) {
	svc, _ := newTestReservationService(newFakeEquipmentRepo())

	_, err := svc.CreateReservation(context.Background(), dto.CreateReservationDTO{
		ClientName: "ТОВ «Енергобуд»",
		Deadline:   "2020-01-01",
		Items:      []dto.ReservationItemDTO{{EquipmentID: 1}},
	})
	assert.ErrorIs(t, err, apperrors.ErrDeadlineInPast)

	_, err = svc.CreateReservation(context.Background(), dto.CreateReservationDTO{
		ClientName: "ТОВ «Енергобуд»",
		Deadline:   "не дата",
		Items:      []dto.ReservationItemDTO{{EquipmentID: 1}},
	})
	assert.Error(t, err)
}

func TestCreateReservationDeadlineToday(t *testing.T) {
	repo := newFakeEquipmentRepo()
	eq := repo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock, CurrentWarehouseID: 1,
	})
	svc, _ := newTestReservationService(repo)

	// Сегодняшняя дата по местному времени - ещё не просрочена.
	_, err := svc.CreateReservation(context.Background(), dto.CreateReservationDTO{
		ClientName: "ТОВ «Енергобуд»",
		Deadline:   time.Now().Format("2006-01-02"),
		Items:      []dto.ReservationItemDTO{{EquipmentID: eq.ID}},
	})
	require.NoError(t, err)
}

func TestCreateReservationMarksEquipment(t *testing.T) {
	repo := newFakeEquipmentRepo()
	eq := repo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock, CurrentWarehouseID: 1,
	})
	svc, _ := newTestReservationService(repo)

	res, err := svc.CreateReservation(context.Background(), dto.CreateReservationDTO{
		ClientName: "ТОВ «Енергобуд»",
		Deadline:   futureDeadline(),
		Items:      []dto.ReservationItemDTO{{EquipmentID: eq.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.ReservationActive, res.Status)
	require.Len(t, res.Items, 1)

	reserved, err := repo.FindEquipment(context.Background(), eq.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusReserved, reserved.Status)
	require.NotNil(t, reserved.Reservation)
	assert.Equal(t, "ТОВ «Енергобуд»", reserved.Reservation.ClientName)
	// Запись знает id своего резерва.
	assert.Equal(t, res.ID, reserved.Reservation.ReservationID)
}

func TestCreateReservationPartialSplitsLot(t *testing.T) {
	repo := newFakeEquipmentRepo()
	lot := repo.put(entities.Equipment{
		Type: "Фільтр масляний", Quantity: 10, Status: entities.StatusInStock, CurrentWarehouseID: 1,
	})
	svc, _ := newTestReservationService(repo)

	res, err := svc.CreateReservation(context.Background(), dto.CreateReservationDTO{
		ClientName: "ПП «Генсервіс»",
		Deadline:   futureDeadline(),
		Items:      []dto.ReservationItemDTO{{EquipmentID: lot.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	// Зарезервирована отщеплённая часть, не источник.
	assert.NotEqual(t, lot.ID, res.Items[0].EquipmentID)
	assert.Equal(t, 4, res.Items[0].Quantity)

	src, err := repo.FindEquipment(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, src.Quantity)
	assert.Equal(t, entities.StatusInStock, src.Status)

	part, err := repo.FindEquipment(context.Background(), res.Items[0].EquipmentID)
	require.NoError(t, err)
	assert.Equal(t, 4, part.Quantity)
	assert.Equal(t, entities.StatusReserved, part.Status)
}

func TestCreateReservationRejectsUnavailable(t *testing.T) {
	repo := newFakeEquipmentRepo()
	reserved := repo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusReserved, CurrentWarehouseID: 1,
	})
	shipped := repo.put(entities.Equipment{
		Type: "DE-110RSS", Quantity: 1, Status: entities.StatusShipped, CurrentWarehouseID: 1,
	})
	svc, _ := newTestReservationService(repo)

	_, err := svc.CreateReservation(context.Background(), dto.CreateReservationDTO{
		ClientName: "ТОВ «Енергобуд»",
		Deadline:   futureDeadline(),
		Items:      []dto.ReservationItemDTO{{EquipmentID: reserved.ID}},
	})
	assert.ErrorIs(t, err, apperrors.ErrEquipmentReserved)

	_, err = svc.CreateReservation(context.Background(), dto.CreateReservationDTO{
		ClientName: "ТОВ «Енергобуд»",
		Deadline:   futureDeadline(),
		Items:      []dto.ReservationItemDTO{{EquipmentID: shipped.ID}},
	})
	assert.ErrorIs(t, err, apperrors.ErrEquipmentNotInStock)
}

func TestCancelReservationRestoresEquipment(t *testing.T) {
	repo := newFakeEquipmentRepo()
	eq := repo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock, CurrentWarehouseID: 1,
	})
	svc, _ := newTestReservationService(repo)

	res, err := svc.CreateReservation(context.Background(), dto.CreateReservationDTO{
		ClientName: "ТОВ «Енергобуд»",
		Deadline:   futureDeadline(),
		Items:      []dto.ReservationItemDTO{{EquipmentID: eq.ID}},
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelReservation(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ReservationCancelled, cancelled.Status)
	assert.NotEmpty(t, cancelled.CancelledAt)

	restored, err := repo.FindEquipment(context.Background(), eq.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusInStock, restored.Status)
	assert.Nil(t, restored.Reservation)

	// Повторная отмена невозможна.
	_, err = svc.CancelReservation(context.Background(), res.ID)
	assert.Error(t, err)
}
