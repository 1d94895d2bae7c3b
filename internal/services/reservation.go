package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	"operations-system/internal/repositories"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/types"
	"operations-system/pkg/utils"
)

const deadlineLayout = "2006-01-02"

type ReservationServiceInterface interface {
	GetReservations(ctx context.Context, filter types.Filter) ([]dto.ReservationDTO, uint64, error)
	FindReservation(ctx context.Context, id uint64) (*dto.ReservationDTO, error)
	CreateReservation(ctx context.Context, payload dto.CreateReservationDTO) (*dto.ReservationDTO, error)
	CancelReservation(ctx context.Context, id uint64) (*dto.ReservationDTO, error)
}

type ReservationService struct {
	reservationRepo repositories.ReservationRepositoryInterface
	equipmentRepo   repositories.EquipmentRepositoryInterface
	txManager       repositories.TxManagerInterface
	logger          *zap.Logger
}

func NewReservationService(
	reservationRepo repositories.ReservationRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) ReservationServiceInterface {
	return &ReservationService{
		reservationRepo: reservationRepo,
		equipmentRepo:   equipmentRepo,
		txManager:       txManager,
		logger:          logger,
	}
}

func mapReservation(r *entities.Reservation) dto.ReservationDTO {
	return dto.ReservationDTO{
		ID:           r.ID,
		ClientName:   r.ClientName,
		ClientEdrpou: r.ClientEdrpou,
		OrderRef:     r.OrderRef,
		Deadline:     r.Deadline.Format(deadlineLayout),
		Notes:        r.Notes,
		Status:       r.Status,
		Items:        r.Items,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    formatTime(r.CreatedAt),
		CancelledAt:  formatTime(r.CancelledAt),
	}
}

func (s *ReservationService) GetReservations(ctx context.Context, filter types.Filter) ([]dto.ReservationDTO, uint64, error) {
	list, total, err := s.reservationRepo.GetReservations(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.ReservationDTO, 0, len(list))
	for i := range list {
		result = append(result, mapReservation(&list[i]))
	}
	return result, total, nil
}

func (s *ReservationService) FindReservation(ctx context.Context, id uint64) (*dto.ReservationDTO, error) {
	res, err := s.reservationRepo.FindReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	view := mapReservation(res)
	return &view, nil
}

// CreateReservation резервирует записи и сам резерв одной транзакцией.
func (s *ReservationService) CreateReservation(ctx context.Context, payload dto.CreateReservationDTO) (*dto.ReservationDTO, error) {
	userName := utils.GetUserNameFromCtx(ctx)

	deadline, err := time.Parse(deadlineLayout, payload.Deadline)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("термін має формат YYYY-MM-DD")
	}
	// Сравниваем календарные даты: Truncate резал бы по UTC, а не по местной полуночи.
	y, m, d := time.Now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if deadline.Before(today) {
		return nil, apperrors.ErrDeadlineInPast
	}

	reservation := entities.Reservation{
		ClientName:   payload.ClientName,
		ClientEdrpou: payload.ClientEdrpou,
		OrderRef:     payload.OrderRef,
		Deadline:     deadline,
		Notes:        payload.Notes,
		Status:       entities.ReservationActive,
		CreatedBy:    userName,
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		now := time.Now()
		for _, item := range payload.Items {
			eq, err := s.equipmentRepo.FindEquipmentTx(ctx, tx, item.EquipmentID)
			if err != nil {
				return err
			}
			if eq.Status != entities.StatusInStock {
				if eq.Status == entities.StatusReserved {
					return apperrors.ErrEquipmentReserved
				}
				return apperrors.ErrEquipmentNotInStock
			}

			qty := item.Quantity
			if qty == 0 {
				qty = eq.Quantity
			}
			if qty > eq.Quantity {
				return apperrors.NewCapacityError(qty, eq.Quantity)
			}

			target := eq
			if qty < eq.Quantity {
				// Частичный резерв лота: отщепляем зарезервированную часть.
				part, err := splitForReservation(ctx, s.equipmentRepo, tx, eq, qty)
				if err != nil {
					return err
				}
				target = part
			}
			target.Status = entities.StatusReserved
			target.Reservation = &entities.ReservationInfo{
				ClientName:   payload.ClientName,
				ClientEdrpou: payload.ClientEdrpou,
				HeldBy:       userName,
				StartDate:    &now,
				EndDate:      &deadline,
				Notes:        payload.Notes,
				Quantity:     qty,
			}
			if err := s.equipmentRepo.UpdateEquipment(ctx, tx, *target); err != nil {
				return err
			}
			reservation.Items = append(reservation.Items, entities.ReservationItem{
				EquipmentID: target.ID,
				Quantity:    qty,
			})
		}

		id, err := s.reservationRepo.CreateReservation(ctx, tx, reservation)
		if err != nil {
			return err
		}
		reservation.ID = id

		// Проставляем ссылку на резерв в каждой записи.
		for _, item := range reservation.Items {
			eq, err := s.equipmentRepo.FindEquipmentTx(ctx, tx, item.EquipmentID)
			if err != nil {
				return err
			}
			if eq.Reservation != nil {
				eq.Reservation.ReservationID = id
				if err := s.equipmentRepo.UpdateEquipment(ctx, tx, *eq); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("резерв создан",
		zap.Uint64("id", reservation.ID), zap.String("client", payload.ClientName), zap.String("by", userName))
	view := mapReservation(&reservation)
	return &view, nil
}

func splitForReservation(
	ctx context.Context,
	repo repositories.EquipmentRepositoryInterface,
	tx pgx.Tx,
	src *entities.Equipment,
	qty int,
) (*entities.Equipment, error) {
	part := *src
	part.ID = 0
	part.Quantity = qty
	part.MovementHistory = append([]entities.MovementEntry(nil), src.MovementHistory...)
	part.ShipmentHistory = append([]entities.ShipmentEntry(nil), src.ShipmentHistory...)

	src.Quantity -= qty
	if err := repo.UpdateEquipment(ctx, tx, *src); err != nil {
		return nil, err
	}
	newID, err := repo.CreateEquipment(ctx, tx, part)
	if err != nil {
		return nil, err
	}
	part.ID = newID
	return &part, nil
}

// CancelReservation снимает резерв и возвращает записи в «На складі».
func (s *ReservationService) CancelReservation(ctx context.Context, id uint64) (*dto.ReservationDTO, error) {
	userName := utils.GetUserNameFromCtx(ctx)

	var cancelled *entities.Reservation
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		res, err := s.reservationRepo.FindReservationTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if res.Status != entities.ReservationActive {
			return apperrors.NewInvalidInputError("резерв %d вже не активний", id)
		}

		for _, item := range res.Items {
			eq, err := s.equipmentRepo.FindEquipmentTx(ctx, tx, item.EquipmentID)
			if err != nil {
				return err
			}
			if eq.Status == entities.StatusReserved {
				eq.Status = entities.StatusInStock
				eq.Reservation = nil
				if err := s.equipmentRepo.UpdateEquipment(ctx, tx, *eq); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		res.Status = entities.ReservationCancelled
		res.CancelledAt = &now
		if err := s.reservationRepo.UpdateReservation(ctx, tx, *res); err != nil {
			return err
		}
		cancelled = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("резерв снят", zap.Uint64("id", id), zap.String("by", userName))
	view := mapReservation(cancelled)
	return &view, nil
}
