package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustgate/internal/verifycode/mailer"
	"trustgate/internal/verifycode/service"
	"trustgate/internal/verifycode/store"
)

func newRouter(t *testing.T) (chi.Router, *mailer.Outbox) {
	t.Helper()
	outbox := mailer.NewOutbox()
	svc := service.New(store.NewInMemory(), outbox, service.Config{TTL: time.Minute, VerifiedTTL: time.Hour})
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, outbox
}

func post(r chi.Router, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)).WithContext(context.Background())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSendAndConfirmOverHTTP(t *testing.T) {
	r, outbox := newRouter(t)

	rec := post(r, "/verification/email/code", `{"email":"jane@acme.com"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	code, ok := outbox.Last("jane@acme.com")
	require.True(t, ok)

	rec = post(r, "/verification/email/confirm", `{"email":"jane@acme.com","code":"`+code+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"verified":true`)
}

func TestConfirmErrors(t *testing.T) {
	r, _ := newRouter(t)

	rec := post(r, "/verification/email/confirm", `{"email":"jane@acme.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(r, "/verification/email/confirm", `{"email":"jane@acme.com","code":"123456"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = post(r, "/verification/email/code", `{"email":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
