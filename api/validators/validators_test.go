package validators

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/sharemeal/sharemeal-backend/pkg/errors"
)

type sampleBody struct {
	Title string `json:"title" validate:"required,max=10"`
	Count *int   `json:"count" validate:"required"`
}

func codeOf(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	return typed.Code()
}

func TestDecodeJSONBody(t *testing.T) {
	var body sampleBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"soup","count":2}`))
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "soup", body.Title)
	assert.Equal(t, 2, *body.Count)
}

func TestDecodeJSONBodyErrors(t *testing.T) {
	cases := map[string]string{
		"empty":     ``,
		"unknown":   `{"title":"soup","count":1,"extra":true}`,
		"missing":   `{"title":"soup"}`,
		"too long":  `{"title":"a very long soup title","count":1}`,
		"malformed": `{"title":`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			var body sampleBody
			err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload)), &body)
			assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))
		})
	}
}

func TestMissingFieldDetailsUseJSONNames(t *testing.T) {
	var body sampleBody
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"soup"}`)), &body)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["count"])
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "mealId", id.String())
	got, err := ParseUUIDParam(req, "mealId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "mealId", "not-a-uuid")
	_, err = ParseUUIDParam(req, "mealId")
	assert.Equal(t, pkgerrors.CodeInvalidParam, codeOf(t, err))
}

func TestParseTimestamp(t *testing.T) {
	at, err := ParseTimestamp("expiry_at", "2026-03-01T14:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), at)

	_, err = ParseTimestamp("expiry_at", "")
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))

	_, err = ParseTimestamp("expiry_at", "tomorrow")
	assert.Equal(t, pkgerrors.CodeInvalidFormat, codeOf(t, err))
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=20", nil)
	limit, err := ParseQueryInt(req, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)

	req = httptest.NewRequest(http.MethodGet, "/?limit=abc", nil)
	_, err = ParseQueryInt(req, "limit", 25, 1, 100)
	assert.Equal(t, pkgerrors.CodeInvalidParam, codeOf(t, err))

	req = httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	_, err = ParseQueryInt(req, "limit", 25, 1, 100)
	assert.Equal(t, pkgerrors.CodeInvalidParam, codeOf(t, err))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "soup", SanitizeString("  soup ", 0))
	assert.Equal(t, "sou", SanitizeString("soup", 3))
	assert.Equal(t, "çé", SanitizeString("çéà", 2))
	assert.Nil(t, SanitizeOptional(nil, 3))
}

func TestParsePositiveCount(t *testing.T) {
	accepted := map[string]int{
		`50`:    50,
		`"50"`:  50,
		`" 7 "`: 7,
		`12.0`:  12,
		`5e1`:   50,
		`"1e2"`: 100,
	}
	for raw, want := range accepted {
		got, err := ParsePositiveCount("beneficiaries_count", json.RawMessage(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{`"abc"`, `2.5`, `"2.5"`, `0`, `-3`, `""`, `true`, `{}`, `[1]`, `1e12`} {
		_, err := ParsePositiveCount("beneficiaries_count", json.RawMessage(raw))
		require.Error(t, err, raw)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, raw)
		assert.Equal(t, pkgerrors.CodeInvalidFormat, typed.Code(), raw)
		assert.Equal(t, map[string]any{"field": "beneficiaries_count"}, typed.Details(), raw)
	}

	for _, raw := range []string{``, `null`, ` null `} {
		_, err := ParsePositiveCount("beneficiaries_count", json.RawMessage(raw))
		assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err), raw)
	}
}
