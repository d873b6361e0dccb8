package clients

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError - запрос к NASA не удался. StatusCode равен 0 для сетевых ошибок
// и ответов, которые не разбираются как JSON.
type APIError struct {
	StatusCode int
	Message    string
	Path       string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("nasa api %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("nasa api %s: status %d: %s", e.Path, e.StatusCode, e.Message)
}

// Transient сообщает, имеет ли смысл повторить запрос.
func (e *APIError) Transient() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// IsAPIError - true, если err (или обёрнутая в него ошибка) это *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
