// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Selam Gebre

package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/internal/mock"
	"github.com/selamgebre/birrsync/internal/service"
)

type handlerMocks struct {
	authoring *mock.MockAuthoringService
	engine    *mock.MockSyncEngine
	resolver  *mock.MockConflictResolver
}

func newTestHandler(t *testing.T, ctrl *gomock.Controller) (*Handler, handlerMocks) {
	t.Helper()

	m := handlerMocks{
		authoring: mock.NewMockAuthoringService(ctrl),
		engine:    mock.NewMockSyncEngine(ctrl),
		resolver:  mock.NewMockConflictResolver(ctrl),
	}

	services := &service.Services{
		Authoring: m.authoring,
		Engine:    m.engine,
		Resolver:  m.resolver,
	}

	return NewHandler(services, "v1.0.0-test", logger.Nop()), m
}

// serve routes the request through the full middleware chain.
func serve(h *Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	request := httptest.NewRequest(method, target, reader)
	recorder := httptest.NewRecorder()

	h.Init().ServeHTTP(recorder, request)

	return recorder
}

func TestGetDaemonVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, _ := newTestHandler(t, ctrl)

	recorder := serve(handler, http.MethodGet, "/api/version", "")

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if got := recorder.Body.String(); got != "v1.0.0-test" {
		t.Fatalf("expected version body, got %q", got)
	}
}

func TestTraceIDHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, _ := newTestHandler(t, ctrl)

	// generated when absent
	recorder := serve(handler, http.MethodGet, "/api/version", "")
	if recorder.Header().Get(traceIDHeader) == "" {
		t.Fatal("expected a generated trace ID header")
	}

	// echoed when provided
	request := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	request.Header.Set(traceIDHeader, "trace-123")
	echoed := httptest.NewRecorder()
	handler.Init().ServeHTTP(echoed, request)

	if got := echoed.Header().Get(traceIDHeader); got != "trace-123" {
		t.Fatalf("expected echoed trace ID, got %q", got)
	}
}

func TestUnsupportedMethodHidesRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, _ := newTestHandler(t, ctrl)

	recorder := serve(handler, http.MethodDelete, "/api/sync/status", "")

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unsupported method, got %d", recorder.Code)
	}
}