package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheetsAPI serves the subset of the Sheets values API used by Store.
type fakeSheetsAPI struct {
	tables   map[string][][]any
	failWith map[string]int
	requests []string
	bodies   []sheets.ValueRange
	mu       sync.Mutex
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	for table, code := range f.failWith {
		if strings.Contains(r.URL.Path, table) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			_, _ = io.WriteString(w, `{"error":{"code":`+strconv.Itoa(code)+`,"message":"failure"}}`)
			return
		}
	}

	if r.Method != http.MethodGet {
		var body sheets.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.bodies = append(f.bodies, body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
		return
	}

	for table, values := range f.tables {
		if strings.Contains(r.URL.Path, table) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(sheets.ValueRange{MajorDimension: "ROWS", Values: values})
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func newTestStore(t *testing.T, api *fakeSheetsAPI) *Store {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	config := DefaultConfig()
	config.SpreadsheetID = "sheet-1"
	config.RetryAttempts = 2
	config.RetryDelay = time.Millisecond

	return newStore(svc, config, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStore_ReadAll(t *testing.T) {
	api := &fakeSheetsAPI{
		tables: map[string][][]any{
			"LISTAS": {
				{"Personas", "Pagador"},
				{"Ana", "Luis"},
				{"Luis"},
			},
		},
	}
	store := newTestStore(t, api)

	rows, err := store.ReadAll(context.Background(), "LISTAS")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Personas", "Pagador"},
		{"Ana", "Luis"},
		{"Luis"},
	}, rows)
}

func TestStore_ReadAllMissingTable(t *testing.T) {
	api := &fakeSheetsAPI{failWith: map[string]int{"NOPE": http.StatusBadRequest}}
	store := newTestStore(t, api)

	_, err := store.ReadAll(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrSourceUnavailable))
	assert.True(t, errors.Is(err, common.ErrTableMissing))

	// 400 is not retried.
	assert.Len(t, api.requests, 1)
}

func TestStore_ReadAllRetriesServerErrors(t *testing.T) {
	api := &fakeSheetsAPI{failWith: map[string]int{"GASTOS": http.StatusInternalServerError}}
	store := newTestStore(t, api)

	_, err := store.ReadAll(context.Background(), "GASTOS")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrSourceUnavailable))
	assert.True(t, errors.Is(err, common.ErrMaxRetries))
	assert.Len(t, api.requests, 2)
}

func TestStore_AppendRow(t *testing.T) {
	api := &fakeSheetsAPI{}
	store := newTestStore(t, api)

	row := []string{"17/03/2024", "Ana", "Ana", "Variable", "Ocio", "-", "-", "-", "-", "45,00"}
	require.NoError(t, store.AppendRow(context.Background(), "GASTOS", row))

	require.Len(t, api.requests, 1)
	assert.True(t, strings.HasPrefix(api.requests[0], http.MethodPost))
	assert.True(t, strings.HasSuffix(api.requests[0], ":append"))
	require.Len(t, api.bodies, 1)
	require.Len(t, api.bodies[0].Values, 1)
	assert.Len(t, api.bodies[0].Values[0], len(row))
	assert.Equal(t, "45,00", api.bodies[0].Values[0][9])
}

func TestStore_AppendRowIsNotRetried(t *testing.T) {
	api := &fakeSheetsAPI{failWith: map[string]int{"GASTOS": http.StatusInternalServerError}}
	store := newTestStore(t, api)

	err := store.AppendRow(context.Background(), "GASTOS", []string{"x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrSourceUnavailable))
	assert.Len(t, api.requests, 1)
}

func TestStore_UpdateRange(t *testing.T) {
	api := &fakeSheetsAPI{}
	store := newTestStore(t, api)

	err := store.UpdateRange(context.Background(), "GASTOS TRABAJO", "C5", [][]string{{"30,00"}})
	require.NoError(t, err)
	require.Len(t, api.requests, 1)
	assert.True(t, strings.HasPrefix(api.requests[0], http.MethodPut))
	require.Len(t, api.bodies, 1)
	assert.Equal(t, "30,00", api.bodies[0].Values[0][0])

	err = store.UpdateRange(context.Background(), "GASTOS TRABAJO", "not a range", nil)
	assert.Error(t, err)
	assert.Len(t, api.requests, 1)
}
