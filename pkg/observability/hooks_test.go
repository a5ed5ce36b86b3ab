package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Docset hooks
	d := NoopDocsetHooks{}
	d.OnScanStart(ctx, "/docs")
	d.OnFragmentParsed(ctx, "core::ops::drop::Drop", "implementors/core/ops/drop/trait.Drop.js", 3, time.Second, nil)
	d.OnScanComplete(ctx, "/docs", 1, 1, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "fragment")
	c.OnCacheMiss(ctx, "table")
	c.OnCacheSet(ctx, "fragment", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/implementors/core/ops/drop/trait.Drop.js")
	h.OnResponse(ctx, "GET", "/implementors/core/ops/drop/trait.Drop.js", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Docset().(NoopDocsetHooks); !ok {
		t.Error("Docset() should return NoopDocsetHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customDocset := &testDocsetHooks{}
	SetDocsetHooks(customDocset)
	if Docset() != customDocset {
		t.Error("SetDocsetHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Docset().(NoopDocsetHooks); !ok {
		t.Error("Reset() should restore NoopDocsetHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testDocsetHooks{}
	SetDocsetHooks(custom)

	SetDocsetHooks(nil)

	if Docset() != custom {
		t.Error("SetDocsetHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testDocsetHooks struct{ NoopDocsetHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
