package params

import "testing"

func TestStatic_ReturnsFreshCopy(t *testing.T) {
	binder := Static(map[string]string{"tenant": "t-1"})

	first := binder.CommonParams()
	first["tenant"] = "mutated"
	first["extra"] = "x"

	second := binder.CommonParams()
	if second["tenant"] != "t-1" {
		t.Errorf("source map mutated: %v", second)
	}
	if _, ok := second["extra"]; ok {
		t.Errorf("copies must be independent: %v", second)
	}
}

func TestMulti_LaterBinderWins(t *testing.T) {
	binder := Multi(
		Static(map[string]string{"env": "dev", "tenant": "t-1"}),
		Static(map[string]string{"env": "prod"}),
	)

	got := binder.CommonParams()
	if got["env"] != "prod" {
		t.Errorf("expected later binder to win, got %q", got["env"])
	}
	if got["tenant"] != "t-1" {
		t.Errorf("earlier keys must survive: %v", got)
	}
}

func TestCorrelationID_FreshPerCall(t *testing.T) {
	binder := CorrelationID("corr")

	first := binder.CommonParams()["corr"]
	second := binder.CommonParams()["corr"]

	if first == "" || second == "" {
		t.Fatal("correlation id must not be empty")
	}
	if first == second {
		t.Error("each call must produce a fresh correlation id")
	}
}
