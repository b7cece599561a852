// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWriterCapturesStatusAndSize(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusConflict)
	rw.Write([]byte(`{"error":"identifier already in use"}`))

	if rw.statusCode != http.StatusConflict {
		t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusConflict)
	}
	if rw.bytes != len(`{"error":"identifier already in use"}`) {
		t.Errorf("bytes = %d, want %d", rw.bytes, len(`{"error":"identifier already in use"}`))
	}
	if rr.Code != http.StatusConflict {
		t.Errorf("recorded status = %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestResponseWriterDefaultsTo200OnWrite(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

	rw.Write([]byte(`{"status":"ok"}`))

	if rw.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusOK)
	}
	if !rw.written {
		t.Error("written should be true after Write")
	}
}

func TestResponseWriterIgnoresLateStatusChange(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK) // too late, first status wins

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusNotFound)
	}
}

func TestResponseWriterAccumulatesBytesAcrossWrites(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

	rw.Write([]byte(`{"id":"DEMO_0001",`))
	rw.Write([]byte(`"labels":[]}`))

	want := len(`{"id":"DEMO_0001",`) + len(`"labels":[]}`)
	if rw.bytes != want {
		t.Errorf("bytes = %d, want %d", rw.bytes, want)
	}
}

func TestLoggerPassesRequestThrough(t *testing.T) {
	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
		w.Write([]byte(`{"error":"category deleted"}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/classifications/DEMO_0001/categories/a1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusGone {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusGone)
	}
	if body := rr.Body.String(); body != `{"error":"category deleted"}` {
		t.Errorf("body = %q, want handler body preserved", body)
	}
}
