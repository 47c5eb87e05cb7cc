/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tomoncle/roster/query"
	"github.com/tomoncle/roster/repository"
)

const (
	CodeNotFound        = "NOT_FOUND"
	CodeNonUniqueResult = "NON_UNIQUE_RESULT"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInvalidSort     = "INVALID_SORT"
	CodeInternalError   = "INTERNAL_ERROR"
)

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// RequestError is a client error detected while reading the request.
type RequestError struct {
	Code    string
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func invalidInput(msg string) error {
	return &RequestError{Code: CodeInvalidInput, Message: msg}
}

func invalidSort(msg string) error {
	return &RequestError{Code: CodeInvalidSort, Message: msg}
}

// statusOf maps an error to its HTTP status, code and client message.
func statusOf(err error) (int, string, string) {
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, reqErr.Code, reqErr.Message
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, err.Error()
	case errors.Is(err, repository.ErrNonUniqueResult):
		return http.StatusConflict, CodeNonUniqueResult, err.Error()
	case errors.Is(err, query.ErrUnknownProperty):
		return http.StatusBadRequest, CodeInvalidSort, err.Error()
	default:
		return http.StatusInternalServerError, CodeInternalError, "internal server error"
	}
}

// abortWithError records err on the context, so the unit of work rolls back,
// and writes the error body.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	status, code, message := statusOf(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("code", code).Error("request failed")
	} else {
		h.logger.WithField("code", code).Debug(message)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}
