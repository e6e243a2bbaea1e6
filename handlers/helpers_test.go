package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/boardgame-tracker/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetIDFromURL(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    int
		wantErr string
	}{
		{name: "valid", path: "/games/42", want: 42},
		{name: "not a number", path: "/games/abc", wantErr: "invalid gameID format"},
		{name: "zero", path: "/games/0", wantErr: "invalid gameID value"},
		{name: "negative", path: "/games/-3", wantErr: "invalid gameID value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got int
				err error
			)
			r := chi.NewRouter()
			r.Get("/games/{gameID}", func(w http.ResponseWriter, req *http.Request) {
				got, err = getIDFromURL(req, "gameID")
			})
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrGameNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: match 4", services.ErrMatchNotFound), http.StatusNotFound},
		{services.ErrUserEmailConflict, http.StatusConflict},
		{services.ErrScoresheetInUse, http.StatusConflict},
		{services.ErrMatchFinished, http.StatusConflict},
		{services.ErrPasswordTooShort, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: %w", services.ErrScoresheetInvalid, errors.New("target missing")), http.StatusUnprocessableEntity},
		{services.ErrPlacementsRequired, http.StatusUnprocessableEntity},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrForbiddenOperation, http.StatusForbidden},
		{services.ErrImageTypeUnsupported, http.StatusUnsupportedMediaType},
		{services.ErrUploadsDisabled, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestServerErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"name":"Azul"}`},
		{name: "empty", body: ``, wantErr: "body must not be empty"},
		{name: "unknown field", body: `{"title":"Azul"}`, wantErr: `unknown key "title"`},
		{name: "wrong type", body: `{"name":5}`, wantErr: `incorrect JSON type for field "name"`},
		{name: "two values", body: `{"name":"a"}{"name":"b"}`, wantErr: "single JSON value"},
		{name: "broken", body: `{"name":`, wantErr: "badly-formed JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst struct {
				Name string `json:"name"`
			}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := readJSON(httptest.NewRecorder(), req, &dst)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Azul", dst.Name)
		})
	}
}
