package catalog

import "errors"

// ErrConnection indicates the catalog service was unreachable or rejected
// the request. Recovered at the fetch boundary, never crashes a view.
var ErrConnection = errors.New("catalog connection failed")

// ErrAuthentication indicates session creation or refresh failed. Session
// state is left as it was before the attempt.
var ErrAuthentication = errors.New("authentication failed")

// ErrNotFound indicates the requested key does not exist on the server.
var ErrNotFound = errors.New("not found")
