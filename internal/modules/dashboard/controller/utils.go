package controller

import (
	"errors"
	"net/http"
	"strconv"

	"smartbin-dashboard/internal/modules/dashboard/types"
)

const defaultFetchesLimit = 20

// parseFetchesQuery reads ?resource= and ?limit=. An empty resource means
// "latest per resource" and limit is ignored.
func parseFetchesQuery(r *http.Request) (resource types.Resource, limit int, err error) {
	q := r.URL.Query()

	if s := q.Get("resource"); s != "" {
		resource = types.Resource(s)
		if !validResource(resource) {
			return "", 0, errors.New("invalid 'resource' (expected readings, reports or alerts)")
		}
	}

	limit = defaultFetchesLimit
	if s := q.Get("limit"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil {
			return "", 0, errors.New("invalid 'limit' (expected integer)")
		}
		if n <= 0 {
			return "", 0, errors.New("'limit' must be > 0")
		}
		if n > 1000 {
			return "", 0, errors.New("'limit' must be <= 1000")
		}
		limit = n
	}

	return resource, limit, nil
}

func validResource(r types.Resource) bool {
	for _, known := range types.Resources {
		if r == known {
			return true
		}
	}
	return false
}
