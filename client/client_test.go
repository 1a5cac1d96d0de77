package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/padraicbc/racingdb/models"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, Options{RetryMax: 2, RetryWaitMin: time.Millisecond, RetryWaitMax: 2 * time.Millisecond})
}

func TestToSQLTime(t *testing.T) {
	tests := map[string]string{
		"06:18 PM":  "18:18",
		"6:05 am":   "06:05",
		"12:30 AM":  "00:30",
		"12:30 PM":  "12:30",
		"18:18:00":  "18:18",
		"18:18":     "18:18",
		" 09:00 ":   "09:00",
		"half past": "half past",
		"":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToSQLTime(in), "input %q", in)
	}
}

func TestToSQLDate(t *testing.T) {
	tests := map[string]string{
		"01/05/2025": "2025-1-5",
		"10/26/2025": "2025-10-26",
		"2025-10-26": "2025-10-26",
		"26.10.2025": "26.10.2025",
		"":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToSQLDate(in), "input %q", in)
	}
}

func TestAddRaceNormalizesBeforeSending(t *testing.T) {
	var (
		mu  sync.Mutex
		got []byte
	)
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/admin/race", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		mu.Lock()
		got, _ = io.ReadAll(r.Body)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"message":"Race added successfully"}`))
	})

	resp, err := c.AddRace(context.Background(), models.Race{
		RaceID: "race37", RaceName: "Dubai Cup", TrackName: "Dubai",
		RaceDate: "01/05/2025", RaceTime: "06:18 PM",
	})
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "Race added successfully", resp.Get("message").String())
	assert.Equal(t, "2025-1-5", gjson.GetBytes(got, "raceDate").String())
	assert.Equal(t, "18:18", gjson.GetBytes(got, "raceTime").String())
}

func TestAddRaceResultRejectsNonPositivePrize(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })

	for _, p := range []json.Number{"0", "-5", "", "lots"} {
		_, err := c.AddRaceResult(context.Background(), models.RaceResult{RaceID: "r", HorseID: "h", Result: "first", Prize: p})
		assert.ErrorIs(t, err, ErrInvalidPrize, "prize %q", p)
	}
	assert.Zero(t, hits.Load())
}

func TestParseEntry(t *testing.T) {
	res, err := ParseEntry("horse1:first:1500.50")
	require.NoError(t, err)
	assert.Equal(t, models.RaceResult{HorseID: "horse1", Result: "first", Prize: "1500.50"}, res)

	_, err = ParseEntry("horse1:first")
	assert.Error(t, err)
	_, err = ParseEntry(":first:100")
	assert.Error(t, err)
	_, err = ParseEntry("horse1:first:0")
	assert.ErrorIs(t, err, ErrInvalidPrize)
}

func TestAddRaceResultsContinuesPastFailures(t *testing.T) {
	var (
		mu     sync.Mutex
		posted []string
	)
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		horse := gjson.GetBytes(b, "horseId").String()
		assert.Equal(t, "race37", gjson.GetBytes(b, "raceId").String())
		mu.Lock()
		posted = append(posted, horse)
		mu.Unlock()
		if horse == "horse2" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"message":"Horse not found","code":"BUSINESS_RULE"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	entries := []models.RaceResult{
		{HorseID: "horse1", Result: "first", Prize: "100"},
		{HorseID: "horse2", Result: "second", Prize: "50"},
		{HorseID: "horse3", Result: "third", Prize: "25"},
	}
	saved, err := c.AddRaceResults(context.Background(), "race37", entries)
	assert.Equal(t, 2, saved)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "horse2")
	assert.Contains(t, err.Error(), "Horse not found")
	mu.Lock()
	assert.Equal(t, []string{"horse1", "horse2", "horse3"}, posted)
	mu.Unlock()

	_, err = c.AddRaceResults(context.Background(), "", entries)
	assert.Error(t, err)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[],"count":0}`))
	})

	resp, err := c.TrackStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Get("count").Int())
	assert.Equal(t, int32(3), hits.Load())
}

func TestPostNeverRetries(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"Failed to add race","code":"INTERNAL","error":"boom"}`))
	})

	_, err := c.AddRace(context.Background(), models.Race{RaceID: "r"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Failed to add race", apiErr.Message)
	assert.Equal(t, "INTERNAL", apiErr.Code)
	assert.Equal(t, "boom", apiErr.Detail)
	assert.Equal(t, int32(1), hits.Load())
}

func TestExhaustedRetriesKeepEnvelope(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"Failed to delete owner"}`))
	})

	_, err := c.DeleteOwner(context.Background(), "owner1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Failed to delete owner", apiErr.Message)
	assert.Equal(t, int32(3), hits.Load())
}

func TestPathsAreEscaped(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.EscapedPath())
		mu.Unlock()
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	ctx := context.Background()

	_, err := c.OwnerHorses(ctx, "")
	require.NoError(t, err)
	_, err = c.OwnerHorses(ctx, "O Brien")
	require.NoError(t, err)
	_, err = c.Horse(ctx, "horse/1")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"/api/guest/owner/horses",
		"/api/guest/owner/O%20Brien/horses",
		"/api/admin/horse/horse%2F1",
	}, paths)
}

func TestMoveHorseSendsNewStableID(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/admin/horse/horse1/stable", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"newStableId":"stable2"}`, string(b))
		_, _ = w.Write([]byte(`{"success":true,"horseId":"horse1","newStableId":"stable2"}`))
	})
	resp, err := c.MoveHorse(context.Background(), "horse1", "stable2")
	require.NoError(t, err)
	assert.Equal(t, "stable2", resp.Get("newStableId").String())
}

func TestSigninStoresToken(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/signin":
			b, _ := io.ReadAll(r.Body)
			if gjson.GetBytes(b, "password").String() != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"message":"incorrect username or password","code":"UNAUTHORIZED"}`))
				return
			}
			_, _ = w.Write([]byte(`{"success":true,"token":"tok","role":"admin"}`))
		default:
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"success":true}`))
		}
	})
	ctx := context.Background()

	_, err := c.Signin(ctx, "padraic", "wrong")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	token, err := c.Signin(ctx, "padraic", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	_, err = c.DeleteOwner(ctx, "owner1")
	require.NoError(t, err)
}

func TestConnectionErrorGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(base, Options{RetryMax: 1, RetryWaitMin: time.Millisecond, RetryWaitMax: time.Millisecond})
	_, err := c.TrainersWithWins(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 2 attempt(s)")
}
