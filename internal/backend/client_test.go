package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david/licitaciones-radar/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:      srv.URL + "/",
		Timeout:      2 * time.Second,
		RateLimitRPS: 1000,
		MaxRetries:   2,
		Backoff:      time.Millisecond,
	}, nil)
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestFetchTendersSendsOnlyActiveFilters(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/licitaciones", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"items": [{"idLicitacion": 1, "titulo": "Obra"}]}`))
	})

	tenders, err := c.Tenders(context.Background(), models.TenderQuery{FamilyCode: 3, PublicationFrom: "2026-02-01"})
	require.NoError(t, err)
	assert.Equal(t, "familia=3&fecha_publicacion_desde=2026-02-01", gotQuery)
	require.Len(t, tenders, 1)
	assert.Equal(t, "Obra", tenders[0].Title)

	_, err = c.FetchTenders(context.Background(), models.TenderQuery{})
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
}

func TestErrorCarriesBodyOrStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/familias" {
			http.Error(w, "familia inexistente", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.FetchFamilies(context.Background())
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadRequest, serr.StatusCode)
	assert.Equal(t, "familia inexistente", serr.Message)

	_, err = c.FetchSubfamilies(context.Background(), 9)
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "HTTP 404", serr.Message)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"cod": 1, "descripcion": "Obras"}]`))
	})

	fams, err := c.FetchFamilies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []models.Family{{Code: 1, Name: "Obras"}}, fams)
}

func TestGetGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	})

	_, err := c.FetchTenders(context.Background(), models.TenderQuery{})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, err.Error(), "down")
}

func TestPostIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.CreateEmail(context.Background(), "a@b.com")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmailEndpoints(t *testing.T) {
	var created map[string]string
	var deleted string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/config/email", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"direccion": "a@b.com"}]`))
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &created))
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			deleted = r.URL.Query().Get("direccion")
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()

	emails, err := c.ListEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.EmailEntry{{Address: "a@b.com"}}, emails)

	require.NoError(t, c.CreateEmail(ctx, "x+1@b.com"))
	assert.Equal(t, map[string]string{"direccion": "x+1@b.com"}, created)

	require.NoError(t, c.DeleteEmail(ctx, "x+1@b.com"))
	assert.Equal(t, "x+1@b.com", deleted)
}

func TestFetchTenderEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/licitaciones/42", r.URL.Path)
	})

	_, found, err := c.FetchTender(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFetchTendersByTitleEscapesPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/licitaciones/titulo/Obra%20vial%2FRuta%205", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`[{"id_licitacion": 5}]`))
	})

	got, err := c.FetchTendersByTitle(context.Background(), "Obra vial/Ruta 5")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].ID)
}

func TestSubfamiliesOfNoFamily(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL.Path)
	})

	subs, err := c.FetchSubfamilies(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestFamilyConfig(t *testing.T) {
	var saved []byte
	stored := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/config", r.URL.Path)
		if r.Method == http.MethodPost {
			saved, _ = io.ReadAll(r.Body)
			stored = true
			return
		}
		if stored {
			_, _ = w.Write(saved)
		}
	})
	ctx := context.Background()

	cfg, err := c.GetFamilyConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg.FamilyCode)
	assert.Nil(t, cfg.SubfamilyCode)

	fam := int64(3)
	require.NoError(t, c.SaveFamilyConfig(ctx, models.FamilyConfig{FamilyCode: &fam}))
	assert.JSONEq(t, `{"familiaCod": 3, "subfamiliaCod": null}`, string(saved))

	cfg, err = c.GetFamilyConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg.FamilyCode)
	assert.Equal(t, int64(3), *cfg.FamilyCode)
}

func TestFetchNotifications(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notificacion":
			assert.Equal(t, "2026-02-05T12:00:00Z", r.URL.Query().Get("fechaEjecucion"))
			_, _ = w.Write([]byte(`[{"id": 1, "titulo": "Diario", "exito": true, "fechaEjecucion": "2026-02-10T07:00:00"}]`))
		case "/notificacion/1":
			_, _ = w.Write([]byte(`{"id": 1, "titulo": "Diario", "exito": true, "detalle": "ok"}`))
		}
	})
	ctx := context.Background()

	since := time.Date(2026, 2, 5, 9, 0, 0, 0, time.FixedZone("UYT", -3*3600))
	list, err := c.FetchNotifications(ctx, since)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Success)

	detail, ok, err := c.FetchNotification(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, detail.Detail)
	assert.Equal(t, "ok", *detail.Detail)
	assert.Nil(t, detail.Content)
}
