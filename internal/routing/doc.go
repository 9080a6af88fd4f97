// Package routing — разрешение имени логической очереди по метаданным
// маршрутизации типов работы.
//
// Исходная система хранила предпочитаемую очередь в аннотации на классе
// задачи/события/обработчика. Здесь это явный Registry, заполняемый при
// старте приложения: стабильный идентификатор типа → имя очереди.
// Router зависит только от операции Lookup и не использует рефлексию.
package routing
