package isbn

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "keeps digits", raw: "9780132350884", expected: "9780132350884"},
		{name: "strips hyphens and spaces", raw: "978-0-13 235088-4", expected: "9780132350884"},
		{name: "strips letters other than X", raw: "abc978013235088X!!", expected: "978013235088X"},
		{name: "folds lowercase x", raw: "080442957x", expected: "080442957X"},
		{name: "empty input", raw: "", expected: ""},
		{name: "only noise", raw: "ISBN: --", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.raw)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestFromScan(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{name: "EAN-13 with 978 prefix", raw: "9780132350884", expected: "9780132350884", ok: true},
		{name: "EAN-13 with 979 prefix", raw: "979-10-90636-07-1", expected: "9791090636071", ok: true},
		{name: "legacy ISBN-10 skips prefix check", raw: "0132350882", expected: "0132350882", ok: true},
		{name: "ISBN-10 with X check character", raw: "080442957X", expected: "080442957X", ok: true},
		{name: "13 digits without bookland prefix", raw: "4006381333931", ok: false},
		{name: "X inside a 13 character candidate", raw: "abc978013235088X!!", ok: false},
		{name: "X before the check position", raw: "08044X9571", ok: false},
		{name: "partial read", raw: "978013235", ok: false},
		{name: "too long", raw: "97801323508841", ok: false},
		{name: "empty", raw: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := FromScan(tt.raw)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v (result %q)", tt.ok, ok, result)
			}
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestFromScanOnlyAcceptsTenOrThirteen(t *testing.T) {
	base := "9780132350884123"
	for n := 0; n <= len(base); n++ {
		_, ok := FromScan(base[:n])
		if ok && n != 10 && n != 13 {
			t.Errorf("accepted candidate of length %d", n)
		}
	}
}

func TestNormalizeManual(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		ready    bool
	}{
		{name: "partial input", raw: "978013", expected: "978013", ready: false},
		{name: "complete input", raw: "9780132350884", expected: "9780132350884", ready: true},
		{name: "capped at thirteen", raw: "97801323508841234", expected: "9780132350884", ready: true},
		{name: "no prefix filter for typed input", raw: "4006381333931", expected: "4006381333931", ready: true},
		{name: "ten digit legacy code is not ready", raw: "0132350882", expected: "0132350882", ready: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeManual(tt.raw)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
			if ManualReady(result) != tt.ready {
				t.Errorf("Expected ready=%v for %q", tt.ready, result)
			}
		})
	}
}
