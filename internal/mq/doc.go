// Package mq — уведомления о поставленных задачах через RabbitMQ.
//
// Очередь задач долговечно живёт в Postgres; RabbitMQ здесь — только
// сигнал «появилась задача», чтобы delivery worker забирал её без
// ожидания очередного poll'а. Отсутствие брокера не ломает систему:
// worker переходит в режим чистого поллинга.
package mq
