package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func HandleSuccess(c *gin.Context, data interface{}, message string) {
	write(c, http.StatusOK, data, message)
}

func HandleCreated(c *gin.Context, data interface{}, message string) {
	write(c, http.StatusCreated, data, message)
}

func write(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, &Response{
		Code:      CodeSuccess,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		RequestID: getRequestID(c),
	})
}
