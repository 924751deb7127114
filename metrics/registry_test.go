package metrics

import "testing"

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry()
	if r.Counter(VMCalls) != r.Counter(VMCalls) {
		t.Fatal("Counter should return the same instance")
	}
	if r.Gauge(VMCallDepth) != r.Gauge(VMCallDepth) {
		t.Fatal("Gauge should return the same instance")
	}
	if r.Histogram(VMExecutionTime) != r.Histogram(VMExecutionTime) {
		t.Fatal("Histogram should return the same instance")
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry()
	r.Counter(VMOpsExecuted).Add(4)
	r.Gauge(VMCallDepth).Inc()
	r.Histogram(VMExecutionTime).Observe(10)

	snap := r.Snapshot()
	if snap[VMOpsExecuted] != int64(4) {
		t.Fatalf("ops = %v, want 4", snap[VMOpsExecuted])
	}
	depth, ok := snap[VMCallDepth].(map[string]int64)
	if !ok || depth["peak"] != 1 {
		t.Fatalf("depth = %v, want peak 1", snap[VMCallDepth])
	}
	hist, ok := snap[VMExecutionTime].(map[string]interface{})
	if !ok || hist["count"] != int64(1) {
		t.Fatalf("histogram = %v, want count 1", snap[VMExecutionTime])
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Counter("b")
	r.Gauge("a")
	r.Histogram("c")
	names := r.Names()
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Fatalf("Names() = %v, want [a b c]", names)
	}
}
