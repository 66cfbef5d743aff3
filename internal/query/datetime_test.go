package query

import "testing"

func TestNormalizeDatetimeYearOnly(t *testing.T) {
	got, err := NormalizeDatetime("2023")
	if err != nil {
		t.Fatal(err)
	}
	want := "2023-01-01T00:00:00Z/2023-12-31T23:59:59Z"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeDatetimeLeapYearFebruary(t *testing.T) {
	got, err := NormalizeDatetime("2024-02")
	if err != nil {
		t.Fatal(err)
	}
	want := "2024-02-01T00:00:00Z/2024-02-29T23:59:59Z"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeDatetimeNonLeapFebruary(t *testing.T) {
	got, err := NormalizeDatetime("2023-02")
	if err != nil {
		t.Fatal(err)
	}
	want := "2023-02-01T00:00:00Z/2023-02-28T23:59:59Z"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeDatetimeDecemberRollover(t *testing.T) {
	got, err := NormalizeDatetime("2023-12")
	if err != nil {
		t.Fatal(err)
	}
	want := "2023-12-01T00:00:00Z/2023-12-31T23:59:59Z"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeDatetimeFullDay(t *testing.T) {
	got, err := NormalizeDatetime("2023-06-15")
	if err != nil {
		t.Fatal(err)
	}
	want := "2023-06-15T00:00:00Z/2023-06-15T23:59:59Z"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeDatetimeFullRFC3339Passthrough(t *testing.T) {
	got, err := NormalizeDatetime("2023-06-01T00:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if got != "2023-06-01T00:00:00Z" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeDatetimeOpenRange(t *testing.T) {
	got, err := NormalizeDatetime("2023-01-01T00:00:00Z/..")
	if err != nil {
		t.Fatal(err)
	}
	if got != "2023-01-01T00:00:00Z/.." {
		t.Errorf("got %q", got)
	}

	got, err = NormalizeDatetime("../2023-12-31T23:59:59Z")
	if err != nil {
		t.Fatal(err)
	}
	if got != "../2023-12-31T23:59:59Z" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeDatetimeEmptyInterval(t *testing.T) {
	if _, err := NormalizeDatetime(".."); err != ErrEmptyDatetimeInterval {
		t.Errorf("got %v, want ErrEmptyDatetimeInterval", err)
	}
	if _, err := NormalizeDatetime("../.."); err != ErrEmptyDatetimeInterval {
		t.Errorf("got %v, want ErrEmptyDatetimeInterval", err)
	}
}

func TestNormalizeDatetimeStartAfterEnd(t *testing.T) {
	_, err := NormalizeDatetime("2023-06-01T00:00:00Z/2023-01-01T00:00:00Z")
	if err != ErrStartIsAfterEnd {
		t.Errorf("got %v, want ErrStartIsAfterEnd", err)
	}
}

func TestNormalizeDatetimeRange(t *testing.T) {
	got, err := NormalizeDatetime("2017/2018")
	if err != nil {
		t.Fatal(err)
	}
	want := "2017-01-01T00:00:00Z/2018-12-31T23:59:59Z"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
