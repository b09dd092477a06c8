package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
)

type testClient struct {
	cookies []*http.Cookie
}

func newTestClient() *testClient {
	return &testClient{}
}

func (c *testClient) setCookie(req *http.Request) {
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
}

func (c *testClient) doJSON(
	method, path string, reqData any, code int, respData any,
) error {
	var body *bytes.Reader
	if reqData != nil {
		data, err := json.Marshal(reqData)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Add("Content-Type", "application/json")
	return c.doRequest(req, code, respData)
}

func (c *testClient) doForm(
	method, path string, form url.Values, code int, respData any,
) error {
	req := httptest.NewRequest(
		method, path, strings.NewReader(form.Encode()),
	)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	return c.doRequest(req, code, respData)
}

func (c *testClient) doRequest(
	req *http.Request, code int, respData any,
) error {
	c.setCookie(req)
	rec := httptest.NewRecorder()
	if err := testHandler(req, rec); err != nil {
		return err
	}
	if rec.Code != code {
		var resp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			return fmt.Errorf("unexpected status %d", rec.Code)
		}
		resp.Code = rec.Code
		return &resp
	}
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	if respData != nil {
		return json.NewDecoder(rec.Body).Decode(respData)
	}
	return nil
}

func (c *testClient) Login(login, password string) (Session, error) {
	var resp Session
	err := c.doJSON(
		http.MethodPost, "/api/v0/login",
		map[string]string{"login": login, "password": password},
		http.StatusCreated, &resp,
	)
	return resp, err
}

func (c *testClient) Logout() error {
	return c.doJSON(
		http.MethodPost, "/api/v0/logout", nil, http.StatusOK, nil,
	)
}

func (c *testClient) Status() (Status, error) {
	var resp Status
	err := c.doJSON(
		http.MethodGet, "/api/v0/status", nil, http.StatusOK, &resp,
	)
	return resp, err
}

func (c *testClient) ObserveRaces() (Races, error) {
	var resp Races
	err := c.doJSON(
		http.MethodGet, "/api/v0/races", nil, http.StatusOK, &resp,
	)
	return resp, err
}

func (c *testClient) CreateRace(form RaceForm) (Race, error) {
	var resp Race
	err := c.doJSON(
		http.MethodPost, "/api/v0/races", form, http.StatusCreated, &resp,
	)
	return resp, err
}

func (c *testClient) DeleteRace(race int64) error {
	return c.doJSON(
		http.MethodDelete, fmt.Sprintf("/api/v0/races/%d", race), nil,
		http.StatusOK, nil,
	)
}

func (c *testClient) ObserveRaceParts(race int64) (RaceParts, error) {
	var resp RaceParts
	err := c.doJSON(
		http.MethodGet, fmt.Sprintf("/api/v0/races/%d/parts", race), nil,
		http.StatusOK, &resp,
	)
	return resp, err
}

func (c *testClient) CreateRacePart(
	race int64, form RacePartForm,
) (RacePart, error) {
	var resp RacePart
	err := c.doJSON(
		http.MethodPost, fmt.Sprintf("/api/v0/races/%d/parts", race),
		form, http.StatusCreated, &resp,
	)
	return resp, err
}

func (c *testClient) DeleteRacePart(race, part int64) error {
	return c.doJSON(
		http.MethodDelete,
		fmt.Sprintf("/api/v0/races/%d/parts/%d", race, part), nil,
		http.StatusOK, nil,
	)
}

func (c *testClient) ObserveParticipants(race int64) (Participants, error) {
	var resp Participants
	err := c.doJSON(
		http.MethodGet, fmt.Sprintf("/api/v0/races/%d/participants", race),
		nil, http.StatusOK, &resp,
	)
	return resp, err
}

func (c *testClient) CreateParticipant(
	race int64, form ParticipantForm,
) (Participant, error) {
	var resp Participant
	err := c.doJSON(
		http.MethodPost, fmt.Sprintf("/api/v0/races/%d/participants", race),
		form, http.StatusCreated, &resp,
	)
	return resp, err
}

func (c *testClient) UpdateParticipant(
	race, participant int64, form ParticipantForm,
) (Participant, error) {
	var resp Participant
	err := c.doJSON(
		http.MethodPatch,
		fmt.Sprintf("/api/v0/races/%d/participants/%d", race, participant),
		form, http.StatusOK, &resp,
	)
	return resp, err
}

func (c *testClient) ImportParticipants(
	race int64, csvData string,
) (ImportReport, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "participants.csv")
	if err != nil {
		return ImportReport{}, err
	}
	if _, err := part.Write([]byte(csvData)); err != nil {
		return ImportReport{}, err
	}
	if err := writer.Close(); err != nil {
		return ImportReport{}, err
	}
	req := httptest.NewRequest(
		http.MethodPost,
		fmt.Sprintf("/api/v0/races/%d/participants/import", race), &body,
	)
	req.Header.Add("Content-Type", writer.FormDataContentType())
	var resp ImportReport
	err = c.doRequest(req, http.StatusOK, &resp)
	return resp, err
}

func (c *testClient) SubmitTimingEvent(
	race int64, part string, form url.Values,
) (TimingEvent, error) {
	var resp TimingEvent
	err := c.doForm(
		http.MethodPost,
		fmt.Sprintf("/api/v0/races/%d/parts/%s/timing", race, part),
		form, http.StatusCreated, &resp,
	)
	return resp, err
}

func (c *testClient) ObserveRaceTiming(race int64) (TimingEvents, error) {
	var resp TimingEvents
	err := c.doJSON(
		http.MethodGet, fmt.Sprintf("/api/v0/races/%d/timing", race), nil,
		http.StatusOK, &resp,
	)
	return resp, err
}

func (c *testClient) DeleteTimingEvent(race, event int64) error {
	return c.doJSON(
		http.MethodDelete,
		fmt.Sprintf("/api/v0/races/%d/timing/%d", race, event), nil,
		http.StatusOK, nil,
	)
}

func (c *testClient) UpsertStartTime(
	race int64, part, group, value string,
) (StartTimeResp, error) {
	form := url.Values{}
	form.Set("group", group)
	form.Set("time", value)
	var resp StartTimeResp
	err := c.doForm(
		http.MethodPost,
		fmt.Sprintf("/api/v0/races/%d/parts/%s/start-times", race, part),
		form, http.StatusOK, &resp,
	)
	return resp, err
}

func (c *testClient) ObserveResults(
	race int64, part string,
) (Results, error) {
	var resp Results
	err := c.doJSON(
		http.MethodGet,
		fmt.Sprintf("/api/v0/races/%d/parts/%s/results", race, part), nil,
		http.StatusOK, &resp,
	)
	return resp, err
}

func (c *testClient) ExportCSV(path string) (string, error) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	c.setCookie(req)
	rec := httptest.NewRecorder()
	if err := testHandler(req, rec); err != nil {
		return "", err
	}
	if rec.Code != http.StatusOK {
		var resp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			return "", fmt.Errorf("unexpected status %d", rec.Code)
		}
		resp.Code = rec.Code
		return "", &resp
	}
	return rec.Body.String(), nil
}
