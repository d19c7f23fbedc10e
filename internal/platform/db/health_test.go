package db

import (
	"errors"
	"testing"
)

func TestStatusFor_Healthy(t *testing.T) {
	conns := ConnStats{Total: 10, Idle: 5, InUse: 5, Max: 20, WaitDuration: "1.5s"}

	st := statusFor(nil, conns)

	if st.Status != "ok" {
		t.Errorf("expected status ok, got %q", st.Status)
	}
	if st.Service != "registry" {
		t.Errorf("expected service registry, got %q", st.Service)
	}
	if st.Error != "" {
		t.Errorf("expected no error, got %q", st.Error)
	}
	if st.Database.InUse != 5 {
		t.Errorf("expected 5 connections in use, got %d", st.Database.InUse)
	}
}

func TestStatusFor_PingFailure(t *testing.T) {
	st := statusFor(errors.New("connection refused"), ConnStats{Max: 20})

	if st.Status != "unavailable" {
		t.Errorf("expected status unavailable, got %q", st.Status)
	}
	if st.Error != "connection refused" {
		t.Errorf("expected ping error in payload, got %q", st.Error)
	}
}
