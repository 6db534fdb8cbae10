// Package admin implements the admin management screens: users, properties
// and inquiries. Every mutation is followed by a full refetch of the list.
package admin

import (
	"errors"
	"fmt"
	"strings"

	"dreamhome/web/internal/client"
)

// PageSize is the number of rows per admin list page.
const PageSize = 10

// ErrNotConfirmed is returned by deletes that were not confirmed. No backend
// call is made.
var ErrNotConfirmed = errors.New("delete not confirmed")

// ValidationError lists the required form fields left empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// fail replaces whatever the backend said with the screen's own message,
// keeping the status and cause for logging.
func fail(err error, message string) error {
	n := client.Normalize(err, message)
	return &client.APIError{Status: n.Status, Message: message, Err: n}
}

// required collects the names of empty fields, in order.
func required(fields ...[2]string) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

func clampPage(page int) int {
	if page < 0 {
		return 0
	}
	return page
}
