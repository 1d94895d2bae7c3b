package errors

import "fmt"

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenNotYetValid     = fmt.Errorf("токен ещё не активен")
	ErrTokenNotFound        = fmt.Errorf("токен не найден")
	ErrTokenIsNotRefresh    = fmt.Errorf("токен не является refresh-токеном")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")

	// Контекст
	ErrUserIDNotFoundInContext = fmt.Errorf("UserID не найден в контексте запроса")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")

	// Складские операции
	ErrEquipmentReserved   = fmt.Errorf("обладнання зарезервовано, спочатку зніміть резерв")
	ErrEquipmentNotInStock = fmt.Errorf("обладнання не на складі")
	ErrDuplicateSerial     = fmt.Errorf("обладнання з таким серійним номером вже існує")
	ErrSameWarehouse       = fmt.Errorf("склади відправлення та призначення збігаються")
	ErrDeadlineInPast      = fmt.Errorf("термін резервування не може бути в минулому")
	ErrCategoryHasChildren = fmt.Errorf("група має підгрупи, видалення заборонено")
	ErrCategoryInUse       = fmt.Errorf("до групи прив'язане обладнання, видалення заборонено")
	ErrReasonRequired      = fmt.Errorf("потрібно вказати причину")
	ErrWarehouseNotEmpty   = fmt.Errorf("на складі є обладнання, видалення заборонено")
)

// HttpError - ошибка с HTTP-кодом для отдачи наружу.
// Err и Context попадают только в лог, Details - в тело ответа.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Context map[string]interface{}
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, context map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: context}
}

func NewHttpErrorWithDetails(code int, message string, err error, details interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

// CapacityError - запрошенное количество превышает доступное.
// По контракту наружу уходят оба числа.
type CapacityError struct {
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("запитана кількість %d перевищує доступну %d", e.Requested, e.Available)
}

func NewCapacityError(requested, available int) error {
	return &CapacityError{Requested: requested, Available: available}
}

// InvalidTransitionError - недопустимый переход статуса тестирования.
type InvalidTransitionError struct {
	From   string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("дія «%s» недоступна зі статусу «%s»", e.Action, e.From)
}

type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
