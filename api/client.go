package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Client represents HTTP client of timer API.
type Client struct {
	endpoint string
	client   http.Client
	Headers  map[string]string
}

// ClientOption represents option of client.
type ClientOption func(*Client)

// WithSessionCookie sets session cookie for endpoint.
func WithSessionCookie(value string) ClientOption {
	return func(c *Client) {
		u, err := url.Parse(c.endpoint)
		if err != nil {
			panic(err)
		}
		c.client.Jar.SetCookies(u, []*http.Cookie{{
			Name:  sessionCookie,
			Value: value,
		}})
	}
}

// WithTimeout sets request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// NewClient returns new API client.
func NewClient(endpoint string, options ...ClientOption) *Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(err)
	}
	c := Client{
		endpoint: endpoint,
		client: http.Client{
			Timeout: 5 * time.Second,
			Jar:     jar,
		},
	}
	for _, option := range options {
		option(&c)
	}
	return &c
}

// Do performs request with client session cookies.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

// Ping checks that server is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.getURL("/ping"), nil,
	)
	if err != nil {
		return err
	}
	_, err = c.doRequest(req, http.StatusOK, nil)
	return err
}

// Login creates new session for user.
func (c *Client) Login(
	ctx context.Context, login, password string,
) (Session, error) {
	data, err := json.Marshal(userAuthForm{
		Login:    login,
		Password: password,
	})
	if err != nil {
		return Session{}, err
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.getURL("/v0/login"), bytes.NewReader(data),
	)
	if err != nil {
		return Session{}, err
	}
	var respData Session
	_, err = c.doRequest(req, http.StatusCreated, &respData)
	return respData, err
}

// Logout removes current session.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.getURL("/v0/logout"), nil,
	)
	if err != nil {
		return err
	}
	_, err = c.doRequest(req, http.StatusOK, nil)
	return err
}

// Status returns current authorization status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.getURL("/v0/status"), nil,
	)
	if err != nil {
		return Status{}, err
	}
	var respData Status
	_, err = c.doRequest(req, http.StatusOK, &respData)
	return respData, err
}

// ObserveRaces returns all races.
func (c *Client) ObserveRaces(ctx context.Context) (Races, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.getURL("/v0/races"), nil,
	)
	if err != nil {
		return Races{}, err
	}
	var respData Races
	_, err = c.doRequest(req, http.StatusOK, &respData)
	return respData, err
}

// CreateRace creates new race.
func (c *Client) CreateRace(
	ctx context.Context, form RaceForm,
) (Race, error) {
	data, err := json.Marshal(form)
	if err != nil {
		return Race{}, err
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.getURL("/v0/races"), bytes.NewReader(data),
	)
	if err != nil {
		return Race{}, err
	}
	var respData Race
	_, err = c.doRequest(req, http.StatusCreated, &respData)
	return respData, err
}

// ObserveRaceParts returns all parts of race.
func (c *Client) ObserveRaceParts(
	ctx context.Context, race int64,
) (RaceParts, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.getURL("/v0/races/%d/parts", race), nil,
	)
	if err != nil {
		return RaceParts{}, err
	}
	var respData RaceParts
	_, err = c.doRequest(req, http.StatusOK, &respData)
	return respData, err
}

// CreateRacePart creates new part of race.
func (c *Client) CreateRacePart(
	ctx context.Context, race int64, form RacePartForm,
) (RacePart, error) {
	data, err := json.Marshal(form)
	if err != nil {
		return RacePart{}, err
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.getURL("/v0/races/%d/parts", race),
		bytes.NewReader(data),
	)
	if err != nil {
		return RacePart{}, err
	}
	var respData RacePart
	_, err = c.doRequest(req, http.StatusCreated, &respData)
	return respData, err
}

// CreateParticipant creates new participant of race.
func (c *Client) CreateParticipant(
	ctx context.Context, race int64, form ParticipantForm,
) (Participant, error) {
	data, err := json.Marshal(form)
	if err != nil {
		return Participant{}, err
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.getURL("/v0/races/%d/participants", race),
		bytes.NewReader(data),
	)
	if err != nil {
		return Participant{}, err
	}
	var respData Participant
	_, err = c.doRequest(req, http.StatusCreated, &respData)
	return respData, err
}

// SubmitTimingEvent records a timing measurement.
//
// Form encoding matches what queued offline submissions use, so
// the same endpoint serves both live and replayed requests.
func (c *Client) SubmitTimingEvent(
	ctx context.Context, race int64, part string, bib int64, duration string,
) (TimingEvent, error) {
	form := url.Values{}
	form.Set("bib_number", fmt.Sprint(bib))
	if duration != "" {
		form.Set("duration", duration)
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.getURL("/v0/races/%d/parts/%s/timing", race, part),
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return TimingEvent{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var respData TimingEvent
	_, err = c.doRequest(req, http.StatusCreated, &respData)
	return respData, err
}

// UpsertStartTime sets start time of group in finish part.
func (c *Client) UpsertStartTime(
	ctx context.Context, race int64, part, group, value string,
) (StartTimeResp, error) {
	form := url.Values{}
	form.Set("group", group)
	form.Set("time", value)
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.getURL("/v0/races/%d/parts/%s/start-times", race, part),
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return StartTimeResp{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var respData StartTimeResp
	_, err = c.doRequest(req, http.StatusOK, &respData)
	return respData, err
}

// ObserveResults returns result table of race part.
func (c *Client) ObserveResults(
	ctx context.Context, race int64, part string,
) (Results, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet,
		c.getURL("/v0/races/%d/parts/%s/results", race, part), nil,
	)
	if err != nil {
		return Results{}, err
	}
	var respData Results
	_, err = c.doRequest(req, http.StatusOK, &respData)
	return respData, err
}

func (c *Client) getURL(path string, args ...any) string {
	return c.endpoint + fmt.Sprintf(path, args...)
}

func (c *Client) doRequest(
	req *http.Request, code int, respData any,
) (*http.Response, error) {
	if len(req.Header.Get("Content-Type")) == 0 {
		req.Header.Add("Content-Type", "application/json")
	}
	for key, value := range c.Headers {
		req.Header.Add(key, value)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != code {
		var respData errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
			return nil, errorWithCode{
				Err:  err,
				Code: resp.StatusCode,
			}
		}
		respData.Code = resp.StatusCode
		return nil, &respData
	}
	if respData != nil {
		return nil, json.NewDecoder(resp.Body).Decode(respData)
	}
	return resp, nil
}

type errorWithCode struct {
	Err  error
	Code int
}

func (r errorWithCode) Error() string {
	return r.Err.Error()
}

func (r errorWithCode) Unwrap() error {
	return r.Err
}

func (r errorWithCode) StatusCode() int {
	return r.Code
}
