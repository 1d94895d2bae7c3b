package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
)

// OCRService разбирает текст с шильдика генератора DAREX ENERGY.
// Результат всегда черновик, оператор проверяет его перед сохранением.
type OCRServiceInterface interface {
	ParseNameplate(ctx context.Context, payload dto.OCRRequestDTO) (*dto.ParsedNameplateDTO, error)
}

type OCRService struct {
	logger *zap.Logger
}

func NewOCRService(logger *zap.Logger) OCRServiceInterface {
	return &OCRService{logger: logger}
}

var (
	reType      = regexp.MustCompile(`TYPE[:\s]+([A-Z0-9\-]+)`)
	reSerial    = regexp.MustCompile(`[№#N][:\s]+(\d+)`)
	reStandby   = regexp.MustCompile(`STANDBY\s+POWER[:\s]+([\d/\s]+(?:KVA|KW)?)`)
	rePrime     = regexp.MustCompile(`PRIME\s+POWER[:\s]+([\d/\s]+(?:KVA|KW)?)`)
	rePhase     = regexp.MustCompile(`PHASE[:\s]+(\d+)`)
	reVoltage   = regexp.MustCompile(`V[:\s]+([\d/]+)`)
	reAmperage  = regexp.MustCompile(`A[:\s]+(\d+)`)
	reCosPhi    = regexp.MustCompile(`COS[φΦ]?[:\s]+([\d.]+)`)
	reRPM       = regexp.MustCompile(`RPM[:\s]+(\d+)`)
	reFrequency = regexp.MustCompile(`HZ[:\s]+(\d+)`)
	reDimension = regexp.MustCompile(`DIMENSION[:\s]+([\d\sxX]+)`)
	reWeight    = regexp.MustCompile(`WEIGHT[:\s]+(\d+)`)
	reDate      = regexp.MustCompile(`DATE[:\s]+(\d{4})`)
)

func matchGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func matchInt(re *regexp.Regexp, text string) int {
	v, _ := strconv.Atoi(matchGroup(re, text))
	return v
}

// ParseNameplate извлекает паспортные поля из сырого текста OCR.
// Нераспознанные поля остаются пустыми, это не ошибка.
func (s *OCRService) ParseNameplate(ctx context.Context, payload dto.OCRRequestDTO) (*dto.ParsedNameplateDTO, error) {
	text := strings.ToUpper(payload.Text)

	nameplate := entities.Nameplate{
		StandbyPower:    matchGroup(reStandby, text),
		PrimePower:      matchGroup(rePrime, text),
		Phase:           matchInt(rePhase, text),
		Voltage:         matchGroup(reVoltage, text),
		Amperage:        matchInt(reAmperage, text),
		RPM:             matchInt(reRPM, text),
		Frequency:       matchInt(reFrequency, text),
		Dimensions:      matchGroup(reDimension, text),
		Weight:          matchInt(reWeight, text),
		ManufactureDate: matchGroup(reDate, text),
	}
	if raw := matchGroup(reCosPhi, text); raw != "" {
		nameplate.CosPhi, _ = strconv.ParseFloat(raw, 64)
	}

	parsed := &dto.ParsedNameplateDTO{
		Manufacturer: "DAREX ENERGY",
		Type:         matchGroup(reType, text),
		SerialNumber: matchGroup(reSerial, text),
		Nameplate:    nameplate,
	}

	s.logger.Debug("шильдик распознан",
		zap.String("type", parsed.Type), zap.String("serial", parsed.SerialNumber))
	return parsed, nil
}
