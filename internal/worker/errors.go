package worker

import "errors"

// Ошибки worker'а.
var (
	// ErrTaskNotFound — уведомление ссылается на несуществующую задачу.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotDue — задача не готова к доставке: уже захвачена,
	// доставлена либо её run_at ещё не наступил.
	ErrTaskNotDue = errors.New("task not due")

	// ErrDeliveryFailed — execute endpoint не подтвердил доставку.
	ErrDeliveryFailed = errors.New("delivery failed")
)
