package extract

import (
	"errors"
	"testing"
)

func TestDecodeFieldsPlainJSON(t *testing.T) {
	f, err := decodeFields(`{"fullName":"Jane Doe","dob":"01-01-1990"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.FullName != "Jane Doe" || f.DOB != "01-01-1990" {
		t.Fatalf("unexpected fields: %+v", f)
	}
}

func TestDecodeFieldsStripsCodeFence(t *testing.T) {
	reply := "```json\n{\"fullName\": \"Jane Doe\", \"dob\": \"01-01-1990\"}\n```"
	f, err := decodeFields(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.FullName != "Jane Doe" {
		t.Fatalf("expected Jane Doe got %q", f.FullName)
	}
}

func TestDecodeFieldsMissingKey(t *testing.T) {
	if _, err := decodeFields(`{"fullName":"Jane Doe"}`); !errors.Is(err, ErrNoFields) {
		t.Fatalf("expected ErrNoFields got %v", err)
	}
	if _, err := decodeFields(`{"fullName":"  ","dob":"01-01-1990"}`); !errors.Is(err, ErrNoFields) {
		t.Fatalf("expected ErrNoFields for blank name got %v", err)
	}
}

func TestDecodeFieldsNotJSON(t *testing.T) {
	if _, err := decodeFields("sorry, I cannot read this image"); err == nil {
		t.Fatal("expected error for non-JSON reply")
	}
}

func TestParseIdentityTextLabeled(t *testing.T) {
	text := "REPUBLIC ID CARD\nName: Jane  Doe\nDate of Birth: 01/01/1990\nNo: 12345"
	f, err := ParseIdentityText(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.FullName != "Jane Doe" {
		t.Fatalf("expected collapsed name, got %q", f.FullName)
	}
	if f.DOB != "01-01-1990" {
		t.Fatalf("expected normalized dob, got %q", f.DOB)
	}
}

func TestParseIdentityTextUnlabeledDate(t *testing.T) {
	text := "Full Name: John Smith\nborn 12/11/1985 somewhere"
	f, err := ParseIdentityText(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.DOB != "12-11-1985" {
		t.Fatalf("expected 12-11-1985 got %q", f.DOB)
	}
}

func TestParseIdentityTextMissingField(t *testing.T) {
	if _, err := ParseIdentityText("Name: Jane Doe\nno date here"); !errors.Is(err, ErrNoFields) {
		t.Fatalf("expected ErrNoFields got %v", err)
	}
}
