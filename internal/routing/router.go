package routing

// Router разрешает имя очереди для единицы работы по упорядоченному
// списку типов-кандидатов.
type Router struct {
	reg *Registry
}

// NewRouter создаёт Router над реестром.
func NewRouter(reg *Registry) *Router {
	return &Router{reg: reg}
}

// Resolve проходит кандидатов по порядку; пустая строка в списке —
// отсутствующий кандидат, он пропускается.
//
// Исторический порядок старшинства сохранён дословно, включая его
// асимметрию:
//
//   - кандидат с собственным непустым именем принимает его;
//   - кандидат без имени наследует имя ПЕРВОГО кандидата списка;
//   - результат каждого обработанного кандидата безусловно замещает
//     предыдущий — в том числе пустой результат сбрасывает уже
//     принятое имя.
//
// Итог: решает последний присутствующий кандидат. Пустой результат —
// очередь бэкенда по умолчанию.
//
// Resolve детерминирован и свободен от побочных эффектов: одинаковый
// список кандидатов над одним реестром всегда даёт одно имя.
func (r *Router) Resolve(candidates ...string) string {
	resolved := ""

	for _, c := range candidates {
		if c == "" {
			continue
		}

		if name := r.reg.Lookup(c); name != "" {
			resolved = name
			continue
		}

		// Кандидат без собственного имени: наследуем имя первого
		// кандидата, иначе кандидат разрешается в «нет имени».
		if len(candidates) > 0 && candidates[0] != "" {
			if name := r.reg.Lookup(candidates[0]); name != "" {
				resolved = name
				continue
			}
		}

		resolved = ""
	}

	return resolved
}
