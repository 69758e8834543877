package utils

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the body of every JSON response. Exactly one of Data and Error is set.
type Envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Status: status, Message: message, Data: data})
}

// JSONError sends a structured error response
func JSONError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, Envelope{Status: status, Message: message, Error: err.Error()})
}

// JSONFieldError sends an error response listing the rejected input fields
func JSONFieldError(c *gin.Context, status int, err error, message string, fields map[string]string) {
	c.JSON(status, Envelope{Status: status, Message: message, Error: err.Error(), Fields: fields})
}
