package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/moyuu-az/attendance-system/internal/domain/user"
	"github.com/moyuu-az/attendance-system/internal/handler/http/middleware"
	"github.com/moyuu-az/attendance-system/internal/pkg/jwt"
)

const maxBodyBytes = 1 << 20

// subjectOf returns whose records a request acts on. requested may be empty;
// acting for someone else needs admin rights.
func subjectOf(r *http.Request, requested string) (string, error) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		return "", jwt.ErrInvalidToken
	}

	requested = strings.TrimSpace(requested)
	if requested == "" || requested == caller.UserID {
		return caller.UserID, nil
	}
	if !caller.IsAdmin {
		return "", user.ErrForbidden
	}
	return requested, nil
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// getIntQueryParam returns nil when key is absent and an error when it is
// not an integer.
func getIntQueryParam(r *http.Request, key string) (*int, error) {
	val := strings.TrimSpace(r.URL.Query().Get(key))
	if val == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &n, nil
}

// intOrZero dereferences n, treating absent as zero.
func intOrZero(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
