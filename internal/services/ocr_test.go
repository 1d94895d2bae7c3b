package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"operations-system/internal/dto"
)

const sampleNameplate = `
DAREX ENERGY
TYPE: DE-275RSS
№: 2304150087
STANDBY POWER: 275 KVA
PRIME POWER: 250 KVA
PHASE: 3
V: 400/230
A: 397
COSφ: 0.8
RPM: 1500
HZ: 50
DIMENSION: 3400 x 1100 x 1850
WEIGHT: 2980
DATE: 2023
`

func TestParseNameplate(t *testing.T) {
	svc := NewOCRService(zap.NewNop())

	parsed, err := svc.ParseNameplate(context.Background(), dto.OCRRequestDTO{Text: sampleNameplate})
	require.NoError(t, err)

	assert.Equal(t, "DAREX ENERGY", parsed.Manufacturer)
	assert.Equal(t, "DE-275RSS", parsed.Type)
	assert.Equal(t, "2304150087", parsed.SerialNumber)

	np := parsed.Nameplate
	assert.Equal(t, "275 KVA", np.StandbyPower)
	assert.Equal(t, "250 KVA", np.PrimePower)
	assert.Equal(t, 3, np.Phase)
	assert.Equal(t, "400/230", np.Voltage)
	assert.Equal(t, 397, np.Amperage)
	assert.InDelta(t, 0.8, np.CosPhi, 0.001)
	assert.Equal(t, 1500, np.RPM)
	assert.Equal(t, 50, np.Frequency)
	assert.Equal(t, "3400 X 1100 X 1850", np.Dimensions)
	assert.Equal(t, 2980, np.Weight)
	assert.Equal(t, "2023", np.ManufactureDate)
}

func TestParseNameplateLowercaseInput(t *testing.T) {
	svc := NewOCRService(zap.NewNop())

	// OCR-движок может отдать текст в нижнем регистре, парсер нормализует сам.
	parsed, err := svc.ParseNameplate(context.Background(), dto.OCRRequestDTO{
		Text: "type: de-110rss\nphase: 3\nhz: 50",
	})
	require.NoError(t, err)
	assert.Equal(t, "DE-110RSS", parsed.Type)
	assert.Equal(t, 3, parsed.Nameplate.Phase)
	assert.Equal(t, 50, parsed.Nameplate.Frequency)
}

func TestParseNameplatePartialText(t *testing.T) {
	svc := NewOCRService(zap.NewNop())

	// Нераспознанные поля остаются пустыми, это не ошибка.
	parsed, err := svc.ParseNameplate(context.Background(), dto.OCRRequestDTO{Text: "размытый текст без полей"})
	require.NoError(t, err)
	assert.Equal(t, "DAREX ENERGY", parsed.Manufacturer)
	assert.Empty(t, parsed.Type)
	assert.Empty(t, parsed.SerialNumber)
	assert.Zero(t, parsed.Nameplate.Weight)
}
