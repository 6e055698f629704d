package dto

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound   = "EVENT_NOT_FOUND"
	TooManyRequests = "TOO_MANY_REQUESTS"
)

// Response is the envelope for every error body.
type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func ErrorResponse(c *ginext.Context, status int, code, desc string) {
	c.AbortWithStatusJSON(status, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func BadResponseError(c *ginext.Context, code, desc string) {
	ErrorResponse(c, http.StatusBadRequest, code, desc)
}

func InternalServerError(c *ginext.Context) {
	ErrorResponse(c, http.StatusInternalServerError, ServiceUnavailable, InternalError)
}

func FieldBadFormatError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldBadFormat, "Field '"+fieldName+"' has bad format")
}

func FieldIncorrectError(c *ginext.Context, fieldName, reason string) {
	desc := "Field '" + fieldName + "' is incorrect"
	if reason != "" {
		desc += ": " + reason
	}
	BadResponseError(c, FieldIncorrect, desc)
}

func EventNotFoundError(c *ginext.Context) {
	ErrorResponse(c, http.StatusNotFound, EventNotFound, "Event not found")
}

func TooManyRequestsError(c *ginext.Context) {
	ErrorResponse(c, http.StatusTooManyRequests, TooManyRequests, "Too many requests. Please slow down.")
}

// SuccessResponse writes data as the whole body.
func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusOK, data)
}
