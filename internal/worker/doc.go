// Package worker — delivery worker очереди.
//
// Worker доставляет сохранённые dispatch-запросы на execute endpoint
// приложения HTTP POST'ом с form-encoded параметрами. Задачи
// поступают двумя путями:
//   - уведомления из RabbitMQ (event-driven, низкая задержка);
//   - периодический polling БД (fallback: подхватывает задачи,
//     созданные без брокера, отложенные run_at и потерянные
//     уведомления).
//
// Источник истины — строка в Postgres: потерянное уведомление не
// теряет задачу. Ответ 2xx от endpoint'а подтверждает доставку;
// любой другой исход — повтор с экспоненциальной задержкой, после
// исчерпания попыток задача уходит в DLQ.
//
// Worker'ы масштабируются горизонтально: захват задачи (Claim) в БД
// исключает двойную доставку между экземплярами.
package worker
