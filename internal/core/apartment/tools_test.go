package apartment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestArgDecoding(t *testing.T) {
	args := map[string]any{
		"f":      80.5,
		"quoted": "3",
		"num":    json.Number("12"),
		"flag":   "true",
		"b":      false,
		"s":      "GYM_01",
		"bad":    "abc",
	}

	if v := argFloat(args, "f"); v == nil || *v != 80.5 {
		t.Fatalf("expected 80.5, got %v", v)
	}
	if v := argInt(args, "quoted"); v == nil || *v != 3 {
		t.Fatalf("expected 3, got %v", v)
	}
	if v := argInt(args, "num"); v == nil || *v != 12 {
		t.Fatalf("expected 12, got %v", v)
	}
	if v := argBool(args, "flag"); v == nil || !*v {
		t.Fatalf("expected true, got %v", v)
	}
	if v := argBool(args, "b"); v == nil || *v {
		t.Fatalf("expected false, got %v", v)
	}
	if v := argString(args, "s"); v == nil || *v != "GYM_01" {
		t.Fatalf("expected GYM_01, got %v", v)
	}
	if v := argFloat(args, "bad"); v != nil {
		t.Fatalf("expected nil, got %v", *v)
	}
	if v := argString(args, "missing"); v != nil {
		t.Fatalf("expected nil, got %v", *v)
	}
}

func TestQueryBuilder(t *testing.T) {
	q := newQuery("  SELECT 1 FROM t WHERE 1=1\n")
	q.where("a = ?", "x")
	q.where("b BETWEEN ? AND ?", 1, 2)
	q.where("c IS NULL")
	q.raw("ORDER BY a")

	want := "SELECT 1 FROM t WHERE 1=1 AND a = @p1 AND b BETWEEN @p2 AND @p3 AND c IS NULL ORDER BY a"
	if got := q.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if len(q.args) != 3 {
		t.Fatalf("expected 3 args, got %v", q.args)
	}
}

func TestInvokeRecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(noop.NewTracerProvider())

	svc := NewApartmentService(&mockQuerier{}, zerolog.Nop())
	if _, ok := svc.Invoke(tenantCtx(), "get_floors", nil); !ok {
		t.Fatalf("expected get_floors to exist")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "tool.get_floors" {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}
