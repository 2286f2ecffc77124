// Package http has the JSON envelope, router seam and server used by API binaries
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "insightmart/internal/platform/errors"
	pnet "insightmart/internal/platform/net"
)

// Envelope is the body of every API response
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
	Page       *Page          `json:"page,omitempty"`
}

// Page describes a list slice
type Page struct {
	Limit  int    `json:"limit"`
	Count  int    `json:"count"`
	Cursor string `json:"cursor,omitempty"`
}

// JSON writes v with status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondOK writes a 200 envelope
func RespondOK(w stdhttp.ResponseWriter, r *stdhttp.Request, data any) {
	OK(data).write(w, r)
}

// RespondError writes the envelope for err
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	Error(err).write(w, r)
}

// Response is what return-style handlers produce
type Response struct {
	Status int
	Body   any
	Page   *Page
}

// Handle adapts a return-style handler
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) { h(r).write(w, r) }
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	reqID := pnet.RequestID(r.Context())

	if err, ok := resp.Body.(error); ok && err != nil {
		status := perr.HTTPStatus(err)
		wr := perr.WireFrom(err)
		JSON(w, status, Envelope{
			StatusCode: status,
			Status:     stdhttp.StatusText(status),
			Code:       wr.Code,
			Error:      wr.Message,
			Field:      wr.Field,
			RequestID:  reqID,
		})
		return
	}

	status := resp.Status
	if status == 0 {
		status = stdhttp.StatusOK
	}
	JSON(w, status, Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		RequestID:  reqID,
		Data:       resp.Body,
		Page:       resp.Page,
	})
}

// OK is a 200 with data
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Accepted is a 202 with data, used when work was queued
func Accepted(data any) Response { return Response{Status: stdhttp.StatusAccepted, Body: data} }

// Error maps err onto status and envelope
func Error(err error) Response { return Response{Body: err} }

// List is a 200 with a page block
func List(items any, limit, count int, cursor string) Response {
	return Response{Status: stdhttp.StatusOK, Body: items, Page: &Page{Limit: limit, Count: count, Cursor: cursor}}
}
