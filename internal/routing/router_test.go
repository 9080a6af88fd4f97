package routing

import "testing"

func newTestRouter(bindings map[string]string) *Router {
	reg := NewRegistry()
	for typeID, queue := range bindings {
		reg.Bind(typeID, queue)
	}
	return NewRouter(reg)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		bindings   map[string]string
		candidates []string
		want       string
	}{
		{
			name:       "single bound candidate",
			bindings:   map[string]string{"report.build": "reports"},
			candidates: []string{"report.build"},
			want:       "reports",
		},
		{
			name:       "single unbound candidate falls to default",
			bindings:   map[string]string{},
			candidates: []string{"report.build"},
			want:       "",
		},
		{
			name:       "no candidates",
			bindings:   map[string]string{"x": "q"},
			candidates: nil,
			want:       "",
		},
		{
			name:       "later candidate with own name wins",
			bindings:   map[string]string{"event.kind": "events", "SlowHandler": "slow"},
			candidates: []string{"event.kind", "SlowHandler"},
			want:       "slow",
		},
		{
			// Кандидат без собственного имени наследует имя первого.
			name:       "unbound candidate inherits first candidate's name",
			bindings:   map[string]string{"event.kind": "events"},
			candidates: []string{"event.kind", "SlowHandler"},
			want:       "events",
		},
		{
			name:       "absent candidates are skipped",
			bindings:   map[string]string{"event.kind": "events"},
			candidates: []string{"event.kind", "", ""},
			want:       "events",
		},
		{
			name:       "all absent",
			bindings:   map[string]string{"x": "q"},
			candidates: []string{"", "", ""},
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(tt.bindings)
			if got := router.Resolve(tt.candidates...); got != tt.want {
				t.Errorf("Resolve(%v) = %q, want %q", tt.candidates, got, tt.want)
			}
		})
	}
}

// Документированная странность унаследованного алгоритма: решает
// ПОСЛЕДНИЙ присутствующий кандидат, и его пустое разрешение сбрасывает
// имя, уже принятое от более раннего кандидата. Поведение сохранено
// сознательно — не «чинить».
func TestResolve_LastCandidateClearsEarlierResolution(t *testing.T) {
	router := newTestRouter(map[string]string{"SlowHandler": "slow"})

	// event.kind не привязан, SlowHandler привязан, AuditListener нет:
	// AuditListener наследует event.kind (тоже пусто) и сбрасывает "slow".
	got := router.Resolve("event.kind", "SlowHandler", "AuditListener")
	if got != "" {
		t.Errorf("expected the last candidate's empty resolution to win, got %q", got)
	}
}

// Вторая грань той же странности: поздний кандидат без имени
// «перетягивает» разрешение на имя первого кандидата, переопределяя
// явное имя среднего.
func TestResolve_LateCandidateInheritsFirstOverExplicitMiddle(t *testing.T) {
	router := newTestRouter(map[string]string{
		"event.kind":  "events",
		"SlowHandler": "slow",
	})

	got := router.Resolve("event.kind", "SlowHandler", "AuditListener")
	if got != "events" {
		t.Errorf("expected inherited first-candidate name %q, got %q", "events", got)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	router := newTestRouter(map[string]string{"event.kind": "events"})

	first := router.Resolve("event.kind", "SlowHandler", "AuditListener")
	for i := 0; i < 100; i++ {
		if got := router.Resolve("event.kind", "SlowHandler", "AuditListener"); got != first {
			t.Fatalf("resolution not deterministic: %q then %q", first, got)
		}
	}
}

func TestRegistry_RebindOverwrites(t *testing.T) {
	reg := NewRegistry()
	reg.Bind("t", "one")
	reg.Bind("t", "two")
	if got := reg.Lookup("t"); got != "two" {
		t.Errorf("expected rebind to overwrite, got %q", got)
	}
}
