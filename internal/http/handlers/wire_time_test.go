package handlers

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWireTime_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{name: "utc", in: `"2025-05-01T08:00:00Z"`, want: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)},
		{name: "offset", in: `"2025-05-01T10:00:00+02:00"`, want: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)},
		{name: "naive", in: `"2025-05-01T08:00:00"`, want: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)},
		{name: "naive fractional", in: `"2025-05-01T08:00:00.123456"`, want: time.Date(2025, 5, 1, 8, 0, 0, 123456000, time.UTC)},
		{name: "naive space separated", in: `"2025-05-01 08:00:00"`, want: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got wireTime
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if !time.Time(got).Equal(tt.want) {
				t.Fatalf("got %v, want %v", time.Time(got), tt.want)
			}
		})
	}
}

func TestWireTime_NaiveIsUTC(t *testing.T) {
	var got wireTime
	if err := json.Unmarshal([]byte(`"2025-05-01T08:00:00"`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if loc := time.Time(got).Location(); loc != time.UTC {
		t.Fatalf("location = %v, want UTC", loc)
	}
}

func TestWireTime_Rejects(t *testing.T) {
	for _, in := range []string{`"yesterday"`, `"2025-05-01"`, `1714550400`, `"2025-13-01T08:00:00"`} {
		var got wireTime
		if err := json.Unmarshal([]byte(in), &got); err == nil {
			t.Errorf("expected error for %s, got %v", in, time.Time(got))
		}
	}
}
