package frame

import (
	"strings"
	"testing"
)

func TestTimecodeString(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00.000"},
		{10, "00:00:10.000"},
		{59, "00:00:59.000"},
		{60, "00:01:00.000"},
		{3661, "01:01:01.000"},
		{86399, "23:59:59.000"},
		{86400, "24:00:00.000"},
		{360000, "100:00:00.000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := TimecodeString(tt.seconds); got != tt.want {
				t.Errorf("TimecodeString(%d) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestTimecodeString_RoundTrip(t *testing.T) {
	// Step through a wide range, past the 24h mark, with an odd stride so every
	// minute and second value is eventually hit.
	for s := 0; s < 200000; s += 37 {
		tc := TimecodeString(s)
		got, err := ParseTimecode(tc)
		if err != nil {
			t.Fatalf("ParseTimecode(%q) unexpected error: %v", tc, err)
		}
		if got != s {
			t.Fatalf("round trip of %d via %q = %d", s, tc, got)
		}
	}
}

func TestParseTimecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
		errMsg  string
	}{
		{name: "zero", input: "00:00:00.000", want: 0},
		{name: "mixed", input: "01:30:45.000", want: 5445},
		{name: "milliseconds discarded", input: "00:00:05.999", want: 5},
		{name: "three digit hours", input: "123:00:00.000", want: 442800},
		{name: "missing milliseconds", input: "00:00:05", wantErr: true, errMsg: "invalid timecode format"},
		{name: "single digit hours", input: "1:00:00.000", wantErr: true, errMsg: "invalid timecode format"},
		{name: "empty", input: "", wantErr: true, errMsg: "invalid timecode format"},
		{name: "minutes too high", input: "00:60:00.000", wantErr: true, errMsg: "minutes must be 0-59"},
		{name: "seconds too high", input: "00:00:60.000", wantErr: true, errMsg: "seconds must be 0-59"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimecode(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTimecode(%q) expected error, got nil", tt.input)
					return
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ParseTimecode(%q) error = %v, want error containing %q", tt.input, err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Errorf("ParseTimecode(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got != tt.want {
				t.Errorf("ParseTimecode(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestTimeString(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0h:00m:00s"},
		{59, "0h:00m:59s"},
		{60, "0h:01m:00s"},
		{3661, "1h:01m:01s"},
		{36000, "10h:00m:00s"},
		{90061, "25h:01m:01s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := TimeString(tt.seconds); got != tt.want {
				t.Errorf("TimeString(%d) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}
