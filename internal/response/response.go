// Package response - общий JSON-конверт API: {status, data, message, meta}.
// Его используют и обработчики, и middleware (429, 500), чтобы форма ответа
// не расходилась.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	StatusOK    = "ok"
	StatusError = "error"

	MsgInternalError = "An internal server error occurred."
)

// Response - общий конверт всех ответов API. На успех заполняется Data,
// на ошибку Message (строка или карта поле -> сообщения).
type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message interface{} `json:"message,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Status: StatusOK, Data: data})
}

// Error прерывает цепочку обработчиков и отдаёт ошибку в конверте.
func Error(c *gin.Context, code int, message interface{}) {
	c.AbortWithStatusJSON(code, Response{Status: StatusError, Message: message})
}
