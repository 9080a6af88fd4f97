// Package params — источники общих параметров (dispatch.ParamBinder).
//
// Общие параметры — сквозной контекст (correlation id, tenant),
// добавляемый в каждую отправляемую единицу работы. Binder вызывается
// заново на каждый Commit, поэтому значения отражают текущий контекст,
// а не состояние на момент конструирования.
package params

import (
	"github.com/google/uuid"
	"github.com/shaiso/Relay/internal/dispatch"
)

// Func — адаптер функции к dispatch.ParamBinder.
type Func func() map[string]string

// CommonParams возвращает результат вызова функции.
func (f Func) CommonParams() map[string]string { return f() }

// Static — binder с фиксированным набором параметров.
// Каждый вызов возвращает свежую копию: вызывающий может дописывать
// в результат, не трогая исходный набор.
func Static(kv map[string]string) dispatch.ParamBinder {
	return Func(func() map[string]string {
		out := make(map[string]string, len(kv))
		for k, v := range kv {
			out[k] = v
		}
		return out
	})
}

// Multi объединяет binders; при коллизии ключей побеждает более
// поздний binder.
func Multi(binders ...dispatch.ParamBinder) dispatch.ParamBinder {
	return Func(func() map[string]string {
		out := make(map[string]string)
		for _, b := range binders {
			for k, v := range b.CommonParams() {
				out[k] = v
			}
		}
		return out
	})
}

// CorrelationID — binder, выдающий свежий correlation id на каждый
// вызов. Один Commit помечает все свои дескрипторы одним id.
func CorrelationID(key string) dispatch.ParamBinder {
	return Func(func() map[string]string {
		return map[string]string{key: uuid.NewString()}
	})
}
