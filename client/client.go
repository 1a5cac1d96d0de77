// Package client talks to the racing API over HTTP. It is what racectl uses
// and mirrors what the browser UI sends: dates and times are normalized and
// prizes checked before anything leaves the machine.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/padraicbc/racingdb/models"
)

// ErrInvalidPrize is returned before submitting a result whose prize is not
// a positive number.
var ErrInvalidPrize = errors.New("prize must be a positive number")

// Options configures a Client. Zero values pick sensible defaults.
type Options struct {
	Token        string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       *zap.Logger
}

// Client is a typed wrapper over the API's guest, admin and sign-in routes.
type Client struct {
	base  string
	token string
	http  *retryablehttp.Client
}

// APIError is a non-2xx (or success:false) reply carrying the server's
// failure envelope.
type APIError struct {
	Status  int
	Message string
	Code    string
	Detail  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Detail != "" && e.Detail != msg {
		return fmt.Sprintf("%d %s: %s", e.Status, msg, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.Status, msg)
}

// Response is a successful reply. Body is the raw JSON.
type Response struct {
	Status int
	Body   []byte
}

// Get reads a gjson path from the body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

type idempotentKey struct{}

// New returns a client for the API rooted at baseURL (for example
// "http://localhost:3000").
func New(baseURL string, opts Options) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	if opts.RetryMax > 0 {
		rc.RetryMax = opts.RetryMax
	}
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	rc.HTTPClient.Timeout = 30 * time.Second
	if opts.Timeout > 0 {
		rc.HTTPClient.Timeout = opts.Timeout
	}
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = lastResponse
	rc.Logger = nil
	if opts.Logger != nil {
		rc.Logger = leveled{opts.Logger.Sugar()}
	}

	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		token: opts.Token,
		http:  rc,
	}
}

// SetToken sets the admin JWT sent with every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

// retryPolicy only retries requests marked idempotent. A POST that reached
// the server may already have written its row.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ok, _ := ctx.Value(idempotentKey{}).(bool); !ok {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// lastResponse hands back the final response once retries run out so the
// caller still sees the server's envelope.
func lastResponse(resp *http.Response, err error, attempts int) (*http.Response, error) {
	if resp != nil {
		return resp, nil
	}
	return nil, fmt.Errorf("giving up after %d attempt(s): %w", attempts, err)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
		ctx = context.WithValue(ctx, idempotentKey{}, true)
	}

	var raw any
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		raw = b
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, raw)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	env := gjson.ParseBytes(data)
	if resp.StatusCode >= 400 || env.Get("success").Type == gjson.False {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: env.Get("message").String(),
			Code:    env.Get("code").String(),
			Detail:  env.Get("error").String(),
		}
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// Health returns the /health report. A 503 comes back as an *APIError.
func (c *Client) Health(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/health", nil)
}

// OwnerHorses lists horses and trainers for owners with last name lname.
// An empty lname lists every owner.
func (c *Client) OwnerHorses(ctx context.Context, lname string) (*Response, error) {
	if lname == "" {
		return c.do(ctx, http.MethodGet, "/api/guest/owner/horses", nil)
	}
	return c.do(ctx, http.MethodGet, "/api/guest/owner/"+url.PathEscape(lname)+"/horses", nil)
}

func (c *Client) TrainersWithWins(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/api/guest/trainers/winners", nil)
}

func (c *Client) TrainerWinnings(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/api/guest/trainers/winnings", nil)
}

func (c *Client) TrackStats(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/api/guest/tracks/stats", nil)
}

// AddRace normalizes the date and time then creates the race.
func (c *Client) AddRace(ctx context.Context, race models.Race) (*Response, error) {
	race.RaceDate = ToSQLDate(race.RaceDate)
	race.RaceTime = ToSQLTime(race.RaceTime)
	return c.do(ctx, http.MethodPost, "/api/admin/race", race)
}

// CheckPrize rejects anything that is not a positive number.
func CheckPrize(prize json.Number) error {
	d, err := decimal.NewFromString(strings.TrimSpace(prize.String()))
	if err != nil || !d.IsPositive() {
		return fmt.Errorf("%w: %q", ErrInvalidPrize, prize)
	}
	return nil
}

// AddRaceResult records one placing. Non-positive prizes never reach the
// server even though it would accept them.
func (c *Client) AddRaceResult(ctx context.Context, res models.RaceResult) (*Response, error) {
	if err := CheckPrize(res.Prize); err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "/api/admin/race/result", res)
}

// ParseEntry reads a staged result in "horseId:result:prize" form.
func ParseEntry(s string) (models.RaceResult, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return models.RaceResult{}, fmt.Errorf("entry %q: want horseId:result:prize", s)
	}
	res := models.RaceResult{
		HorseID: strings.TrimSpace(parts[0]),
		Result:  strings.TrimSpace(parts[1]),
		Prize:   json.Number(strings.TrimSpace(parts[2])),
	}
	if res.HorseID == "" || res.Result == "" {
		return models.RaceResult{}, fmt.Errorf("entry %q: horse ID and result are required", s)
	}
	if err := CheckPrize(res.Prize); err != nil {
		return models.RaceResult{}, fmt.Errorf("entry %q: %w", s, err)
	}
	return res, nil
}

// AddRaceResults posts staged entries for raceID one at a time. A failed
// entry does not stop the rest; the returned error joins every failure.
func (c *Client) AddRaceResults(ctx context.Context, raceID string, entries []models.RaceResult) (int, error) {
	if raceID == "" {
		return 0, errors.New("race ID is required")
	}
	if len(entries) == 0 {
		return 0, errors.New("nothing to submit")
	}
	saved := 0
	var errs []error
	for _, e := range entries {
		e.RaceID = raceID
		if _, err := c.AddRaceResult(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.HorseID, err))
			continue
		}
		saved++
	}
	return saved, errors.Join(errs...)
}

func (c *Client) DeleteOwner(ctx context.Context, ownerID string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, "/api/admin/owner/"+url.PathEscape(ownerID), nil)
}

func (c *Client) MoveHorse(ctx context.Context, horseID, stableID string) (*Response, error) {
	body := map[string]string{"newStableId": stableID}
	return c.do(ctx, http.MethodPut, "/api/admin/horse/"+url.PathEscape(horseID)+"/stable", body)
}

func (c *Client) ApproveTrainer(ctx context.Context, t models.Trainer) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/api/admin/trainer", t)
}

func (c *Client) Horse(ctx context.Context, horseID string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/api/admin/horse/"+url.PathEscape(horseID), nil)
}

// Signin exchanges credentials for a token and keeps it for later calls.
func (c *Client) Signin(ctx context.Context, username, password string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/signin", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	token := resp.Get("token").String()
	if token == "" {
		return "", errors.New("signin: no token in response")
	}
	c.token = token
	return token, nil
}

// leveled adapts a sugared zap logger to retryablehttp.LeveledLogger.
type leveled struct {
	s *zap.SugaredLogger
}

func (l leveled) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveled) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l leveled) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveled) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
