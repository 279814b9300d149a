package observability

import "testing"

func TestParseCloudTraceContextDecimalSpan(t *testing.T) {
	spanCtx, ok := parseCloudTraceContext("105445aa7843bc8bf206b12000100000/1;o=1")
	if !ok {
		t.Fatalf("expected header to parse")
	}
	if spanCtx.TraceID().String() != "105445aa7843bc8bf206b12000100000" {
		t.Fatalf("unexpected trace id %s", spanCtx.TraceID())
	}
	if spanCtx.SpanID().String() != "0000000000000001" {
		t.Fatalf("unexpected span id %s", spanCtx.SpanID())
	}
	if !spanCtx.IsSampled() {
		t.Fatalf("expected sampled flag")
	}
}

func TestParseCloudTraceContextHexSpan(t *testing.T) {
	spanCtx, ok := parseCloudTraceContext("105445aa7843bc8bf206b12000100000/00f067aa0ba902b7;o=0")
	if !ok {
		t.Fatalf("expected header to parse")
	}
	if spanCtx.SpanID().String() != "00f067aa0ba902b7" {
		t.Fatalf("unexpected span id %s", spanCtx.SpanID())
	}
	if spanCtx.IsSampled() {
		t.Fatalf("expected unsampled span")
	}
}

func TestParseCloudTraceContextRejectsMalformed(t *testing.T) {
	for _, header := range []string{
		"",
		"105445aa7843bc8bf206b12000100000",
		"short/1;o=1",
		"105445aa7843bc8bf206b12000100000/;o=1",
		"105445aa7843bc8bf206b12000100000/zzzz",
		"105445aa7843bc8bf206b12000100000/0",
	} {
		if _, ok := parseCloudTraceContext(header); ok {
			t.Fatalf("expected %q to be rejected", header)
		}
	}
}
