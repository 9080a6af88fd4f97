// Package execute — endpoint выполнения доставленной работы.
//
// Delivery worker доставляет сохранённый dispatch-запрос HTTP POST'ом
// на dispatch.ExecutePath. Handler восстанавливает единицу работы по
// зарезервированным параметрам: задачу — по типу из реестра задач,
// событие — декодированием payload'а и вызовом именованного
// listener'а/обработчика либо всех подписчиков на вид события.
//
// Ответ 2xx подтверждает доставку; любой другой статус заставит worker
// повторить попытку, поэтому обработчики обязаны быть идемпотентными.
package execute
