// Package cli реализует инструмент командной строки Relay.
//
// CLI — операторская утилита: работает напрямую с Postgres-очередью,
// минуя приложение. Используется для постановки задач вручную,
// инспекции очереди и разбора DLQ.
//
// Команды:
//   - enqueue: поставить задачу в очередь
//   - tasks: list, show, dlq
//   - stats: количество задач по статусам
//
// Вывод — таблицы через text/tabwriter, с флагом --json — JSON.
// Данные идут в stdout, сообщения — в stderr, что позволяет
// использовать pipe: relay tasks list --json | jq .
//
// Каждая группа команд создаётся фабричной функцией (NewTasksCmd и
// т.д.), принимающей depsFn и outputFn — замыкания для ленивого
// подключения к БД после парсинга PersistentFlags.
package cli
