package middleware

import (
	"strings"
	"testing"

	stathttp "github.com/statserve/statserve/core/http"
)

func newCtx(method, path string) *stathttp.StandardContext {
	req := stathttp.AcquireRequest()
	req.Method = method
	req.Path = path
	return stathttp.AcquireContext(req)
}

func TestPipelineOrder(t *testing.T) {
	var order []string

	p := NewPipeline()
	p.Use(func(ctx stathttp.Context) { order = append(order, "first") })
	p.Use(func(ctx stathttp.Context) { order = append(order, "second") })

	ctx := newCtx("GET", "/")
	p.Execute(ctx, func(c stathttp.Context) { order = append(order, "final") })

	want := []string{"first", "second", "final"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, order)
		}
	}
}

func TestPipelineAbortSkipsRest(t *testing.T) {
	var ran []string

	p := NewPipeline()
	p.Use(func(ctx stathttp.Context) {
		ran = append(ran, "abort")
		ctx.Abort()
		ctx.Error(429, "slow down")
	})
	p.Use(func(ctx stathttp.Context) { ran = append(ran, "skipped") })

	ctx := newCtx("GET", "/")
	p.Execute(ctx, func(c stathttp.Context) { ran = append(ran, "final") })

	if len(ran) != 1 || ran[0] != "abort" {
		t.Errorf("Abort should stop the chain, ran %v", ran)
	}
	if ctx.StatusCode() != 429 {
		t.Errorf("Expected aborted status 429, got %d", ctx.StatusCode())
	}
}

func TestPipelineRecoversPanic(t *testing.T) {
	p := NewPipeline()

	ctx := newCtx("GET", "/boom")
	p.Execute(ctx, func(c stathttp.Context) {
		panic("handler exploded")
	})

	if ctx.StatusCode() != 500 {
		t.Errorf("Expected 500 after panic, got %d", ctx.StatusCode())
	}
	if !strings.HasPrefix(string(ctx.ResponseBytes()), "HTTP/1.1 500 ") {
		t.Error("Expected a serialized 500 response after panic")
	}
}

func TestServerHeader(t *testing.T) {
	p := NewPipeline()
	p.Use(ServerHeader("statserve/1.0"))

	ctx := newCtx("GET", "/")
	p.Execute(ctx, func(c stathttp.Context) {
		c.JSON(200, map[string]string{"ok": "yes"})
	})

	if !strings.Contains(string(ctx.ResponseBytes()), "Server: statserve/1.0\r\n") {
		t.Error("Expected Server header on response")
	}
}

func TestRequestIDIncrements(t *testing.T) {
	mw := RequestID()

	first := newCtx("GET", "/")
	mw(first)
	first.JSON(200, map[string]string{})

	second := newCtx("GET", "/")
	mw(second)
	second.JSON(200, map[string]string{})

	a := string(first.ResponseBytes())
	b := string(second.ResponseBytes())
	if !strings.Contains(a, "X-Request-ID: ") || !strings.Contains(b, "X-Request-ID: ") {
		t.Fatal("Expected X-Request-ID headers")
	}
	if a[strings.Index(a, "X-Request-ID"):] == b[strings.Index(b, "X-Request-ID"):] {
		t.Error("Request IDs should differ between requests")
	}
}
