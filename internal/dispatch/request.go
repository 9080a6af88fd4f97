package dispatch

// ExecutePath — единственный endpoint доставки. Все запросы, независимо
// от вида работы, доставляются worker'ом на этот путь приложения.
const ExecutePath = "/queue/execute"

// Зарезервированные ключи параметров. По ним execute endpoint
// восстанавливает единицу работы; downstream-обработчик получает их
// дословно.
const (
	// ParamTaskType — идентификатор типа задачи.
	ParamTaskType = "taskQueue"

	// ParamEventKind — идентификатор типа события.
	ParamEventKind = "event"

	// ParamEventPayload — сериализованное событие, percent-encoded,
	// чтобы payload был безопасен внутри значения параметра.
	ParamEventPayload = "eventJson"

	// ParamListener — короткое имя listener'а (опционально).
	ParamListener = "listener"

	// ParamHandler — короткое имя обработчика события (опционально).
	ParamHandler = "handler"
)

// Request — backend-нейтральный запрос на постановку в очередь.
// Строится заново для каждого дескриптора и не переиспользуется.
type Request struct {
	// Path — целевой endpoint доставки (ExecutePath).
	Path string

	// Params — полный набор параметров: зарезервированные ключи,
	// параметры дескриптора и общие параметры.
	Params map[string]string

	// Name — имя задачи для дедупликации; пустая строка — без имени.
	Name string

	// DelayMillis — относительная задержка выполнения.
	// Ноль — без задержки.
	DelayMillis int64

	// ETAMillis — абсолютное время выполнения (unix millis).
	// Взаимоисключим с DelayMillis; при конфликте побеждает задержка.
	ETAMillis int64
}
