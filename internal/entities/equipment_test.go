package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestEquipmentKind(t *testing.T) {
	testCases := []struct {
		name     string
		eq       Equipment
		expected StockKind
	}{
		{
			name:     "штучная запись с серийником",
			eq:       Equipment{SerialNumber: strPtr("DE-112233"), Quantity: 1},
			expected: KindSingle,
		},
		{
			name:     "единица партии",
			eq:       Equipment{BatchID: strPtr("b6f3c0de"), Quantity: 1},
			expected: KindBatch,
		},
		{
			name:     "количественный лот без серийника",
			eq:       Equipment{Quantity: 5},
			expected: KindQuantityLot,
		},
		{
			name:     "пустой серийник не делает запись штучной",
			eq:       Equipment{SerialNumber: strPtr(""), Quantity: 3},
			expected: KindQuantityLot,
		},
		{
			name:     "batch_id важнее количества",
			eq:       Equipment{BatchID: strPtr("b6f3c0de"), Quantity: 4},
			expected: KindBatch,
		},
		{
			name:     "единичная запись без серийника",
			eq:       Equipment{Quantity: 1},
			expected: KindSingle,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eq.Kind())
		})
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "На складі", StatusInStock.Label())
	assert.Equal(t, "Зарезервовано", StatusReserved.Label())
	assert.Equal(t, "В дорозі", StatusInTransit.Label())
	assert.Equal(t, "Відвантажено", StatusShipped.Label())
	assert.Equal(t, "Списано", StatusWrittenOff.Label())

	// Неизвестный статус возвращается как есть, без паники.
	assert.Equal(t, "x", Status("x").Label())
	assert.False(t, Status("x").Valid())
}

func TestTestingTransitions(t *testing.T) {
	allowed := []struct {
		from, to TestingStatus
	}{
		{TestingNone, TestingRequested},
		{TestingRequested, TestingInProgress},
		{TestingRequested, TestingNone},
		{TestingInProgress, TestingCompleted},
		{TestingInProgress, TestingFailed},
		{TestingCompleted, TestingRequested},
		{TestingFailed, TestingRequested},
	}
	for _, tr := range allowed {
		assert.True(t, tr.from.CanTransition(tr.to), "%s -> %s должен быть разрешён", tr.from, tr.to)
	}

	forbidden := []struct {
		from, to TestingStatus
	}{
		{TestingNone, TestingInProgress},
		{TestingNone, TestingCompleted},
		{TestingRequested, TestingCompleted},
		{TestingCompleted, TestingInProgress},
		{TestingFailed, TestingFailed},
		{TestingInProgress, TestingNone},
	}
	for _, tr := range forbidden {
		assert.False(t, tr.from.CanTransition(tr.to), "%s -> %s должен быть запрещён", tr.from, tr.to)
	}
}
