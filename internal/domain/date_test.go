package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDate_Layouts(t *testing.T) {
	cases := map[string]string{
		"2025-06-01":               "2025-06-01",
		" 2025-06-01 ":             "2025-06-01",
		"2025-06-01T10:30:00Z":     "2025-06-01",
		"2025-06-01T23:30:00+03:00": "2025-06-01",
	}
	for in, want := range cases {
		d, err := ParseDate(in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", in, err)
		}
		if d.String() != want {
			t.Fatalf("ParseDate(%q) = %s; want %s", in, d, want)
		}
	}
	if _, err := ParseDate("01.06.2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate for unsupported layout, got %v", err)
	}
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2025-06-01"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"d":"2025-06-01"}` {
		t.Fatalf("marshal = %s", b)
	}
	if err := json.Unmarshal([]byte(`{"d":5}`), &v); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate for numeric date, got %v", err)
	}
	var zero Date
	if b, _ := json.Marshal(zero); string(b) != "null" {
		t.Fatalf("zero date should marshal as null, got %s", b)
	}
}

func TestDate_Scan(t *testing.T) {
	var d Date
	if err := d.Scan("2025-06-01 00:00:00+00:00"); err != nil || d.String() != "2025-06-01" {
		t.Fatalf("scan sqlite text: %v %s", err, d)
	}
	if err := d.Scan([]byte("2024-02-29")); err != nil || d.String() != "2024-02-29" {
		t.Fatalf("scan bytes: %v %s", err, d)
	}
	if err := d.Scan(time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)); err != nil || d.String() != "2025-01-02" {
		t.Fatalf("scan time: %v %s", err, d)
	}
	if err := d.Scan(42); err == nil {
		t.Fatalf("expected error scanning int")
	}
	v, err := NewDate(time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)).Value()
	if err != nil || v != "2025-03-04" {
		t.Fatalf("Value = %v %v", v, err)
	}
}
