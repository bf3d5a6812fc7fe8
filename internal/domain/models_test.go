package domain

import "testing"

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusNew, StatusContacted, StatusConverted, StatusRejected} {
		if !ValidStatus(s) {
			t.Fatalf("%q should be a valid status", s)
		}
	}
	for _, s := range []string{"", "NEW", "archived"} {
		if ValidStatus(s) {
			t.Fatalf("%q should not be a valid status", s)
		}
	}
}

func TestSnapshot_ValueScanRoundTrip(t *testing.T) {
	in := Snapshot{"serviceTier": "express", "propertySize": float64(120)}

	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var out Snapshot
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out["serviceTier"] != "express" {
		t.Fatalf("round trip lost data: %v", out)
	}
	if out["propertySize"] != float64(120) {
		t.Fatalf("numbers should decode as float64: %v", out["propertySize"])
	}
}

func TestSnapshot_NilValue(t *testing.T) {
	var s Snapshot
	v, err := s.Value()
	if err != nil || v != "{}" {
		t.Fatalf("nil snapshot should serialize to {}, got %v err=%v", v, err)
	}
}

func TestSnapshot_ScanNilAndEmpty(t *testing.T) {
	var s Snapshot
	if err := s.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if err := s.Scan(""); err != nil {
		t.Fatalf("Scan empty string: %v", err)
	}
	if err := s.Scan(42); err == nil {
		t.Fatalf("expected error for unsupported column type")
	}
}

func TestBreakdown_Sum(t *testing.T) {
	b := Breakdown{"base": 29900, "area": 35000, "discount": -6490}
	if got := b.Sum(); got != 58410 {
		t.Fatalf("Sum = %d, want 58410", got)
	}
	var empty Breakdown
	if empty.Sum() != 0 {
		t.Fatalf("nil breakdown should sum to 0")
	}
}

func TestBreakdown_ValueScanRoundTrip(t *testing.T) {
	in := Breakdown{"base": 44900, "discount": -4490}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	var out Breakdown
	if err := out.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out["base"] != 44900 || out["discount"] != -4490 {
		t.Fatalf("round trip mismatch: %v", out)
	}
}
