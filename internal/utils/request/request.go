// Package request holds the small parsing steps every handler repeats:
// reading an integer id out of the URL and decoding a JSON body.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// ErrEmptyBody is returned by DecodeJSON when the client sent nothing.
var ErrEmptyBody = errors.New("request body is empty")

// PathID parses the {name} segment of the URL as an int64.
// The route pattern must declare the wildcard, e.g. "GET /api/students/{id}".
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", name)
	}
	return id, nil
}

// DecodeJSON decodes the request body into dst.
// An empty body is reported as ErrEmptyBody rather than io.EOF.
func DecodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}
	return err
}
