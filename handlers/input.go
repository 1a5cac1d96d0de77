package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// maxBody caps request bodies. Larger payloads are rejected with 413.
const maxBody = 100 << 10

// bindBody decodes a JSON or urlencoded body into a field map. Numbers stay
// json.Number so nothing is rounded before coercion. Other content types
// read as an empty body.
func bindBody(c echo.Context) (map[string]any, error) {
	req := c.Request()
	body := map[string]any{}
	if req.Body == nil || req.ContentLength == 0 {
		return body, nil
	}

	ctype := strings.ToLower(req.Header.Get(echo.HeaderContentType))
	switch {
	case strings.HasPrefix(ctype, echo.MIMEApplicationJSON):
		dec := json.NewDecoder(http.MaxBytesReader(c.Response(), req.Body, maxBody))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				return body, nil
			}
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request body too large").SetInternal(err)
			}
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body").SetInternal(err)
		}
		// Arrays and scalars are valid JSON but carry no fields.
		if m, ok := v.(map[string]any); ok {
			body = m
		}
	case strings.HasPrefix(ctype, echo.MIMEApplicationForm), strings.HasPrefix(ctype, echo.MIMEMultipartForm):
		form, err := c.FormParams()
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid form body").SetInternal(err)
		}
		for k, vs := range form {
			if len(vs) > 0 {
				body[k] = vs[0]
			}
		}
	}
	return body, nil
}

// pathParam returns the decoded value of a route parameter. Echo routes on
// URL.RawPath when it is set, leaving params escaped; otherwise URL.Path is
// already decoded and must not be unescaped again.
func pathParam(c echo.Context, name string) string {
	raw := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
