package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
)

const importPath = "/api/receipts/import-external"

type fakeStore struct {
	data map[string]string
	dels int
	// onSet runs before a value is written with Set.
	onSet func(key string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if f.onSet != nil {
		f.onSet(key)
	}
	str, _ := value.(string)
	f.data[key] = str
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.dels++
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	return req.WithContext(WithHouseholdCode(ctx, "SMITH42"))
}

func TestRouteTTLSelection(t *testing.T) {
	ttl, ok := routeTTL(http.MethodPost, importPath)
	if !ok || ttl != defaultIdempotencyTTL {
		t.Fatalf("expected receipt import to be idempotent, got ttl=%v ok=%v", ttl, ok)
	}
	if _, ok := routeTTL(http.MethodPost, "/api/shopping-list/check-item"); ok {
		t.Fatalf("check-item should not be idempotent")
	}
	if _, ok := routeTTL(http.MethodGet, importPath); ok {
		t.Fatalf("GET should not match")
	}
}

func TestIdempotencyMiddlewarePassesThroughWithoutHeader(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, importPath, importPath, strings.NewReader(`{"source":"app"}`))
		Idempotency(store, nil)(handler).ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected nothing stored, got %v", store.data)
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"imported":2}`))
	})

	req := requestWithPattern(http.MethodPost, importPath, importPath, strings.NewReader(`{"source":"app"}`))
	req.Header.Set(idempotencyHeader, "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", resp.Code)
	}

	replay := requestWithPattern(http.MethodPost, importPath, importPath, strings.NewReader(`{"source":"app"}`))
	replay.Header.Set(idempotencyHeader, "abc")
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, replay)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if rec.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay marker header")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"imported":2}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodPost, importPath, importPath, strings.NewReader(`{"source":"app"}`))
	req.Header.Set(idempotencyHeader, "xyz")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	replay := requestWithPattern(http.MethodPost, importPath, importPath, strings.NewReader(`{"source":"other"}`))
	replay.Header.Set(idempotencyHeader, "xyz")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, replay)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, payload.Code)
	}
}

func TestIdempotencyMiddlewareRejectsInFlightDuplicate(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	inner := 0
	var handler http.Handler
	handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner++
		if inner == 1 {
			dup := requestWithPattern(http.MethodPost, importPath, importPath, strings.NewReader(`{"source":"app"}`))
			dup.Header.Set(idempotencyHeader, "busy")
			rec := httptest.NewRecorder()
			mw(handler).ServeHTTP(rec, dup)
			if rec.Code != http.StatusConflict {
				t.Errorf("expected in-flight duplicate to get 409, got %d", rec.Code)
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodPost, importPath, importPath, strings.NewReader(`{"source":"app"}`))
	req.Header.Set(idempotencyHeader, "busy")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	if inner != 1 {
		t.Fatalf("expected a single execution, got %d", inner)
	}
}

func TestIdempotencyMiddlewareDoesNotStoreServerErrors(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, importPath, importPath, strings.NewReader(`{"source":"app"}`))
		req.Header.Set(idempotencyHeader, "retry-me")
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls != 2 {
		t.Fatalf("expected retry after 5xx, handler ran %d times", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected no stored record, got %v", store.data)
	}
}

func TestIdempotencyMiddlewareKeepsKeyReservedUntilStored(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	newRequest := func() *http.Request {
		req := requestWithPattern(http.MethodPost, importPath, importPath, strings.NewReader(`{"source":"app"}`))
		req.Header.Set(idempotencyHeader, "handoff")
		return req
	}

	var concurrent *httptest.ResponseRecorder
	store.onSet = func(string) {
		concurrent = httptest.NewRecorder()
		mw(handler).ServeHTTP(concurrent, newRequest())
	}

	first := httptest.NewRecorder()
	mw(handler).ServeHTTP(first, newRequest())

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if concurrent == nil || concurrent.Code != http.StatusConflict {
		t.Fatalf("expected retry during persistence to conflict, got %+v", concurrent)
	}
	if store.dels != 0 {
		t.Fatalf("expected reservation to be replaced in place, saw %d deletes", store.dels)
	}

	store.onSet = nil
	replay := httptest.NewRecorder()
	mw(handler).ServeHTTP(replay, newRequest())
	if replay.Header().Get("Idempotent-Replayed") != "true" || calls != 1 {
		t.Fatalf("expected stored replay, got header=%q calls=%d", replay.Header().Get("Idempotent-Replayed"), calls)
	}
}
