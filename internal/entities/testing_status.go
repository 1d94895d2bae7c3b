package entities

// TestingStatus - состояние процесса тестирования на записи обладнання.
type TestingStatus string

const (
	TestingNone       TestingStatus = "none"
	TestingRequested  TestingStatus = "requested"
	TestingInProgress TestingStatus = "in_progress"
	TestingCompleted  TestingStatus = "completed"
	TestingFailed     TestingStatus = "failed"
)

func (t TestingStatus) Valid() bool {
	switch t {
	case TestingNone, TestingRequested, TestingInProgress, TestingCompleted, TestingFailed:
		return true
	}
	return false
}

func (t TestingStatus) Label() string {
	switch t {
	case TestingRequested:
		return "Очікує тестування"
	case TestingInProgress:
		return "На тестуванні"
	case TestingCompleted:
		return "Протестовано"
	case TestingFailed:
		return "Не пройшло тест"
	}
	return "—"
}

// Переходы машины состояний тестирования. Повторный запрос после
// завершённого или проваленного теста разрешён.
var testingTransitions = map[TestingStatus][]TestingStatus{
	TestingNone:       {TestingRequested},
	TestingRequested:  {TestingInProgress, TestingNone},
	TestingInProgress: {TestingCompleted, TestingFailed},
	TestingCompleted:  {TestingRequested},
	TestingFailed:     {TestingRequested},
}

// CanTransition проверяет допустимость перехода t -> to.
func (t TestingStatus) CanTransition(to TestingStatus) bool {
	for _, next := range testingTransitions[t] {
		if next == to {
			return true
		}
	}
	return false
}
