package net

import (
	"context"
	"testing"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	if RequestID(ctx) != "" {
		t.Fatalf("empty ctx should have no id")
	}
	if WithRequest(ctx, "") != ctx {
		t.Fatalf("blank id should not wrap")
	}
	if got := RequestID(WithRequest(ctx, "r-1")); got != "r-1" {
		t.Fatalf("RequestID = %q", got)
	}
}
