package bind

import (
	"net/http/httptest"
	"testing"
	"time"

	perr "insightmart/internal/platform/errors"
)

type listQuery struct {
	Source string    `query:"source" validate:"omitempty,oneof=price news"`
	Limit  int       `query:"limit" validate:"min=1,max=500"`
	Since  time.Time `query:"since"`
	Failed bool      `query:"failed"`
}

func TestQueryDefaultsAndParse(t *testing.T) {
	r := httptest.NewRequest("GET", "/ops/rejects?source=news&since=2024-01-02&failed=true", nil)
	got, err := Query(r, listQuery{Limit: 50})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got.Source != "news" || got.Limit != 50 || !got.Failed {
		t.Fatalf("Query = %+v", got)
	}
	if !got.Since.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Since = %v", got.Since)
	}
}

func TestQueryErrors(t *testing.T) {
	cases := []struct {
		url   string
		code  perr.ErrorCode
		field string
	}{
		{"/x?limit=abc", perr.ErrorCodeInvalidArgument, "limit"},
		{"/x?limit=900", perr.ErrorCodeValidation, "limit"},
		{"/x?source=tweets", perr.ErrorCodeValidation, "source"},
		{"/x?since=yesterday", perr.ErrorCodeInvalidArgument, "since"},
	}
	for _, c := range cases {
		_, err := Query(httptest.NewRequest("GET", c.url, nil), listQuery{Limit: 50})
		e, ok := perr.As(err)
		if !ok || e.Code() != c.code || e.Field() != c.field {
			t.Fatalf("%s: err = %v (code %v field %q)", c.url, err, perr.CodeOf(err), e.Field())
		}
	}
}

func TestValidateMessages(t *testing.T) {
	type opts struct {
		Workers int `env:"WORKERS" validate:"min=1"`
	}
	err := Validate(opts{})
	if err == nil {
		t.Fatalf("expected failure")
	}
	if err.Error() != "WORKERS must be at least 1" {
		t.Fatalf("message = %q", err.Error())
	}
	if Validate(opts{Workers: 2}) != nil {
		t.Fatalf("valid struct failed")
	}
}
