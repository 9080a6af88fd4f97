// Package dispatch — ядро слоя отложенного выполнения работы.
//
// Вызывающий код накапливает дескрипторы задач и событий на Scheduler
// и фиксирует их одной операцией Commit:
//
//	sched := dispatch.New(dispatch.Config{
//		Backend:   pg,
//		Transport: codec,
//		Binder:    binder,
//		Router:    router,
//	})
//
//	err := sched.
//		Add(dispatch.NewTask("revenue.summarize").
//			Named("revenues-2011-10-10 12:30").
//			Param("revenueDate", "2011-10-10 12:30")).
//		Commit(ctx)
//
// Именованные задачи используются для fan-in: несколько продюсеров
// ставят работу под одним именем, бэкенд отклоняет дубликаты, и в
// очереди остаётся ровно один экземпляр.
//
// Пакет не делает сетевых вызовов сам — физическая очередь, транспорт
// событий и источник общих параметров подключаются через порты Backend,
// EventTransport и ParamBinder.
package dispatch
