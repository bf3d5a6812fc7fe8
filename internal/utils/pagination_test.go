package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	if AtoiDefault("", 7) != 7 || AtoiDefault("x", 7) != 7 {
		t.Fatalf("fallback not applied")
	}
	if AtoiDefault("42", 7) != 42 {
		t.Fatalf("parse failed")
	}
	if AtoiDefault("-3", 7) != -3 {
		t.Fatalf("negative numbers parse as-is")
	}
}

func TestPagination(t *testing.T) {
	cases := []struct {
		page, size         string
		wantPage, wantSize int
	}{
		{"", "", 1, DefaultPageSize},
		{"0", "0", 1, DefaultPageSize},
		{"-2", "-5", 1, DefaultPageSize},
		{"3", "50", 3, 50},
		{"2", "9999", 2, MaxPageSize},
		{"junk", "junk", 1, DefaultPageSize},
	}
	for _, c := range cases {
		page, size := Pagination(c.page, c.size)
		if page != c.wantPage || size != c.wantSize {
			t.Fatalf("Pagination(%q,%q) = (%d,%d), want (%d,%d)", c.page, c.size, page, size, c.wantPage, c.wantSize)
		}
	}
}
