package main

import (
	"testing"
	"time"
)

func TestFormatDOB(t *testing.T) {
	if got := formatDOB("1990-01-01"); got != "01-01-1990" {
		t.Fatalf("expected 01-01-1990 got %q", got)
	}
	// already formatted / free text passes through untouched
	if got := formatDOB("01-01-1990"); got != "01-01-1990" {
		t.Fatalf("expected passthrough got %q", got)
	}
	if got := formatDOB(""); got != "" {
		t.Fatalf("expected empty got %q", got)
	}
}

func TestMedicineValidation(t *testing.T) {
	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	m := medicineInput{Name: "Paracetamol", ExpiryDate: future, Quantity: 2}
	if _, err := m.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Quantity = 0
	if _, err := m.validate(); err == nil {
		t.Fatal("expected error for zero quantity")
	}

	m.Quantity = 1
	m.ExpiryDate = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	if _, err := m.validate(); err == nil {
		t.Fatal("expected error for past expiry")
	}

	m.ExpiryDate = future
	m.Name = ""
	if _, err := m.validate(); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestParseExpiryFormats(t *testing.T) {
	if _, err := parseExpiry("2031-05-01"); err != nil {
		t.Fatalf("iso date rejected: %v", err)
	}
	if _, err := parseExpiry("2031-05-01T00:00:00Z"); err != nil {
		t.Fatalf("rfc3339 rejected: %v", err)
	}
	if _, err := parseExpiry("soon"); err == nil {
		t.Fatal("expected error for junk date")
	}
}
