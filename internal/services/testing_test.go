package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	apperrors "operations-system/pkg/errors"
)

func TestTestingWorkflow(t *testing.T) {
	repo := newFakeEquipmentRepo()
	eq := repo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock,
		CurrentWarehouseID: 1, TestingStatus: entities.TestingNone,
	})
	svc := NewTestingService(repo, &fakeTxManager{}, &fakeFileStorage{}, zap.NewNop())
	ctx := context.Background()

	// Нельзя взять в работу то, что не запрошено.
	_, err := svc.TakeInWork(ctx, eq.ID)
	var trErr *apperrors.InvalidTransitionError
	require.True(t, errors.As(err, &trErr))

	requested, err := svc.RequestTesting(ctx, eq.ID, dto.RequestTestingDTO{Procedure: "навантажувальний тест"})
	require.NoError(t, err)
	assert.Equal(t, entities.TestingRequested, requested.TestingStatus)
	require.NotNil(t, requested.Testing)
	assert.Equal(t, "навантажувальний тест", requested.Testing.Procedure)
	assert.NotNil(t, requested.Testing.RequestedAt)

	inWork, err := svc.TakeInWork(ctx, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TestingInProgress, inWork.TestingStatus)
	assert.NotNil(t, inWork.Testing.TakenAt)

	// Из «в работе» нельзя отменить, только завершить.
	_, err = svc.CancelTesting(ctx, eq.ID)
	require.True(t, errors.As(err, &trErr))

	done, err := svc.CompleteTesting(ctx, eq.ID, dto.CompleteTestingDTO{
		Status:     "completed",
		Result:     "справний",
		Conclusion: "допущено до відвантаження",
		Engineers:  []string{"Петренко"},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.TestingCompleted, done.TestingStatus)
	assert.Equal(t, "справний", done.Testing.Result)
	assert.NotNil(t, done.Testing.CompletedAt)

	// Повторный запрос начинает новый цикл и затирает протокол.
	again, err := svc.RequestTesting(ctx, eq.ID, dto.RequestTestingDTO{})
	require.NoError(t, err)
	assert.Equal(t, entities.TestingRequested, again.TestingStatus)
	assert.Empty(t, again.Testing.Result)
}

func TestCompleteTestingValidatesStatus(t *testing.T) {
	repo := newFakeEquipmentRepo()
	eq := repo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock,
		TestingStatus: entities.TestingInProgress,
	})
	svc := NewTestingService(repo, &fakeTxManager{}, &fakeFileStorage{}, zap.NewNop())

	_, err := svc.CompleteTesting(context.Background(), eq.ID, dto.CompleteTestingDTO{Status: "requested"})
	assert.Error(t, err)

	failed, err := svc.CompleteTesting(context.Background(), eq.ID, dto.CompleteTestingDTO{
		Status: "failed",
		Result: "пробій обмотки",
	})
	require.NoError(t, err)
	assert.Equal(t, entities.TestingFailed, failed.TestingStatus)
}

func TestListTestingRequests(t *testing.T) {
	repo := newFakeEquipmentRepo()
	repo.put(entities.Equipment{Type: "a", Quantity: 1, TestingStatus: entities.TestingRequested})
	repo.put(entities.Equipment{Type: "b", Quantity: 1, TestingStatus: entities.TestingInProgress})
	repo.put(entities.Equipment{Type: "c", Quantity: 1, TestingStatus: entities.TestingNone})
	repo.put(entities.Equipment{Type: "d", Quantity: 1, TestingStatus: entities.TestingCompleted})
	svc := NewTestingService(repo, &fakeTxManager{}, &fakeFileStorage{}, zap.NewNop())

	list, err := svc.ListTestingRequests(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUploadTestingFile(t *testing.T) {
	repo := newFakeEquipmentRepo()
	idle := repo.put(entities.Equipment{Type: "DE-110RSS", Quantity: 1, TestingStatus: entities.TestingNone})
	svc := NewTestingService(repo, &fakeTxManager{}, &fakeFileStorage{}, zap.NewNop())
	ctx := context.Background()

	// Без начатого цикла тестирования файл прикладывать некуда.
	_, err := svc.UploadFile(ctx, idle.ID, strings.NewReader("data"), "protocol.pdf")
	assert.Error(t, err)

	eq := repo.put(entities.Equipment{Type: "DE-275RSS", Quantity: 1, TestingStatus: entities.TestingNone})
	_, err = svc.RequestTesting(ctx, eq.ID, dto.RequestTestingDTO{Procedure: "випробування"})
	require.NoError(t, err)

	res, err := svc.UploadFile(ctx, eq.ID, strings.NewReader("data"), "protocol.pdf")
	require.NoError(t, err)
	require.NotNil(t, res.Testing)
	require.Len(t, res.Testing.Files, 1)
	assert.Equal(t, "/uploads/testing/protocol.pdf", res.Testing.Files[0].URL)
	assert.Equal(t, "protocol.pdf", res.Testing.Files[0].Name)
}
