// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/userprofile/pkg/errors"
)

// TotalResultsHeader carries the unpaginated match count of list endpoints.
const TotalResultsHeader = "Omeka-S-Total-Results"

type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo is the client view of an AppError. Fields maps a profile field name to
// the messages raised for it.
type ErrorInfo struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

type Meta struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Response{Success: true, Data: data})
}

// Paginated writes one page of a list with its pagination meta and the total
// results header.
func Paginated(c *gin.Context, data any, page, perPage int, total int64) {
	meta := &Meta{Page: page, PerPage: perPage, Total: int(total)}
	if perPage > 0 {
		meta.TotalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	c.Header(TotalResultsHeader, strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Meta: meta})
}

// Error renders err. Errors that are not AppErrors become a bare 500.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}
	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, Response{Error: &ErrorInfo{Code: appErr.Code, Message: appErr.Message, Fields: appErr.Fields}})
}
