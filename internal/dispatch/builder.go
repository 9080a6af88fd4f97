package dispatch

import (
	"fmt"
	"net/url"
)

// buildRequest превращает дескриптор в backend-нейтральный запрос.
func buildRequest(d *Descriptor, transport EventTransport) (*Request, error) {
	if d.IsEvent() {
		return buildEventRequest(d, transport)
	}
	return buildTaskRequest(d), nil
}

// buildTaskRequest — запрос для задачи: зарезервированный ключ с типом
// задачи, параметры дескриптора и, при наличии, имя для дедупликации.
func buildTaskRequest(d *Descriptor) *Request {
	req := &Request{
		Path:   ExecutePath,
		Params: make(map[string]string, len(d.params)+1),
	}

	req.Params[ParamTaskType] = d.taskType
	for k, v := range d.params {
		req.Params[k] = v
	}

	// Именованная задача: бэкенд обязан отклонить дубликат имени.
	if d.name != "" {
		req.Name = d.name
	}

	applyTiming(d, req)
	return req
}

// buildEventRequest — запрос для события: тип события, сериализованный
// и percent-encoded payload, короткие имена listener/handler.
func buildEventRequest(d *Descriptor, transport EventTransport) (*Request, error) {
	req := &Request{
		Path:   ExecutePath,
		Params: make(map[string]string, len(d.params)+4),
	}

	kind := d.event.Kind()
	req.Params[ParamEventKind] = kind

	data, err := transport.Encode(kind, d.event)
	if err != nil {
		// Несериализуемый payload — ошибка конфигурации, повтор не поможет.
		return nil, fmt.Errorf("%w: encode %q: %v", ErrEncodeEvent, kind, err)
	}
	req.Params[ParamEventPayload] = url.QueryEscape(string(data))

	if d.listener != "" {
		req.Params[ParamListener] = d.listener
	}
	if d.handler != "" {
		req.Params[ParamHandler] = d.handler
	}

	for k, v := range d.params {
		req.Params[k] = v
	}

	applyTiming(d, req)
	return req, nil
}

// applyTiming переносит время выполнения в запрос: ненулевая задержка
// побеждает абсолютное время; без того и другого запрос выполняется
// как можно скорее.
func applyTiming(d *Descriptor, req *Request) {
	switch {
	case d.delay > 0:
		req.DelayMillis = d.delay.Milliseconds()
	case !d.runAt.IsZero() && d.runAt.UnixMilli() > 0:
		req.ETAMillis = d.runAt.UnixMilli()
	}
}
