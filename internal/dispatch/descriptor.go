package dispatch

import "time"

// Event — доменное событие, пригодное к асинхронной отправке.
// Kind возвращает стабильный идентификатор типа события; по нему
// транспорт сериализует значение, а execute endpoint восстанавливает его.
type Event interface {
	Kind() string
}

// HandlerAssociated — событие, объявляющее свой обработчик.
// Имя обработчика попадает в кандидаты маршрутизации и в параметры
// запроса, если не переопределено через ViaHandler.
type HandlerAssociated interface {
	AssociatedHandler() string
}

// Descriptor — описание одной единицы отложенной работы: задача
// (тип + параметры) либо событие (+ опциональные listener/handler).
//
// Дескриптор изменяется только builder-методами; после Commit
// считается отправленным и больше не модифицируется.
type Descriptor struct {
	taskType string
	event    Event
	listener string
	handler  string

	params map[string]string

	name            string
	delay           time.Duration
	runAt           time.Time
	transactionless bool
}

// NewTask создаёт дескриптор задачи указанного типа.
func NewTask(taskType string) *Descriptor {
	return &Descriptor{
		taskType: taskType,
		params:   make(map[string]string),
	}
}

// NewEvent создаёт дескриптор события. Если событие объявляет свой
// обработчик (HandlerAssociated), его имя подставляется сразу.
func NewEvent(event Event) *Descriptor {
	d := &Descriptor{
		event:  event,
		params: make(map[string]string),
	}
	if ha, ok := event.(HandlerAssociated); ok {
		d.handler = ha.AssociatedHandler()
	}
	return d
}

// Param добавляет параметр. Ключи уникальны в рамках дескриптора:
// повторная запись по тому же ключу перезаписывает значение.
func (d *Descriptor) Param(key, value string) *Descriptor {
	d.params[key] = value
	return d
}

// Named задаёт имя задачи. Именованная задача дедуплицируется
// бэкендом: повторная постановка с тем же именем в ту же очередь
// отклоняется как ErrTaskAlreadyExists.
func (d *Descriptor) Named(name string) *Descriptor {
	d.name = name
	return d
}

// Delay откладывает выполнение на относительный интервал.
// Если заданы и Delay, и RunAt, побеждает Delay.
func (d *Descriptor) Delay(delay time.Duration) *Descriptor {
	d.delay = delay
	return d
}

// RunAt задаёт абсолютное время выполнения.
func (d *Descriptor) RunAt(t time.Time) *Descriptor {
	d.runAt = t
	return d
}

// Transactionless — постановка выполняется вне объемлющей транзакции.
func (d *Descriptor) Transactionless() *Descriptor {
	d.transactionless = true
	return d
}

// ViaListener задаёт короткое имя listener'а события.
func (d *Descriptor) ViaListener(name string) *Descriptor {
	d.listener = name
	return d
}

// ViaHandler задаёт короткое имя обработчика события.
func (d *Descriptor) ViaHandler(name string) *Descriptor {
	d.handler = name
	return d
}

// IsEvent — дискриминатор варианта: событие или задача.
func (d *Descriptor) IsEvent() bool {
	return d.event != nil
}

// TaskType возвращает идентификатор типа задачи (пусто для события).
func (d *Descriptor) TaskType() string { return d.taskType }

// Event возвращает значение события (nil для задачи).
func (d *Descriptor) Event() Event { return d.event }

// Listener возвращает имя listener'а (пусто, если не задан).
func (d *Descriptor) Listener() string { return d.listener }

// Handler возвращает имя обработчика (пусто, если не задан).
func (d *Descriptor) Handler() string { return d.handler }

// Name возвращает имя задачи (пусто для безымянной).
func (d *Descriptor) Name() string { return d.name }

// Params возвращает копию параметров дескриптора.
func (d *Descriptor) Params() map[string]string {
	out := make(map[string]string, len(d.params))
	for k, v := range d.params {
		out[k] = v
	}
	return out
}
