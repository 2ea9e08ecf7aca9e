package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type ClientController struct {
	client *http.Client
	logger *logrus.Logger

	apiKey string
}

func NewClientController(
	client *http.Client,
	apiKey string,
	logger *logrus.Logger,
) *ClientController {
	return &ClientController{
		client: client,
		apiKey: apiKey,
		logger: logger,
	}
}

// HTTPError reports a non-2xx venue response. The gateway translates it
// into the retry taxonomy; nothing below the gateway interprets it.
type HTTPError struct {
	StatusCode int
	VenueCode  int
	VenueMsg   string
}

func (e *HTTPError) Error() string {
	return errors.Errorf("statusCode %d; code %d; msg %q", e.StatusCode, e.VenueCode, e.VenueMsg).Error()
}

type venueErrBody struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (c *ClientController) Send(method string, url *url.URL, body []byte, useApiKey bool) ([]byte, error) {
	req, err := http.NewRequest(method, url.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Add("Content-Type", "application/json")
	if useApiKey {
		req.Header.Add("x-phemex-access-token", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		httpErr := &HTTPError{StatusCode: resp.StatusCode}

		var errMsg venueErrBody
		if err := json.Unmarshal(out, &errMsg); err == nil {
			httpErr.VenueCode = errMsg.Code
			httpErr.VenueMsg = errMsg.Msg
		}

		return nil, httpErr
	}

	return out, nil
}
