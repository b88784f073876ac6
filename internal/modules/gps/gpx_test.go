package gps

import (
	"testing"
	"time"

	"github.com/tkrajina/gpxgo/gpx"

	"fitapp/internal/types"
)

func TestExportGPX_RoundTrip(t *testing.T) {
	samples := []Sample{
		{SessionID: "s", Timestamp: t0, Latitude: 52.0, Longitude: 21.0},
		{SessionID: "s", Timestamp: t0.Add(30 * time.Second), Latitude: 52.001, Longitude: 21.002, LastEntry: true, Activity: types.ActivityCycling},
	}

	data, err := ExportGPX("s", samples)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	doc, err := gpx.ParseBytes(data)
	if err != nil {
		t.Fatalf("parse exported gpx: %v", err)
	}
	if len(doc.Tracks) != 1 || len(doc.Tracks[0].Segments) != 1 {
		t.Fatalf("expected one track with one segment")
	}
	if doc.Tracks[0].Name != "s" {
		t.Errorf("track name = %q", doc.Tracks[0].Name)
	}
	pts := doc.Tracks[0].Segments[0].Points
	if len(pts) != 2 {
		t.Fatalf("expected 2 points, got %d", len(pts))
	}
	if pts[1].Latitude != 52.001 || pts[1].Longitude != 21.002 {
		t.Errorf("second point = (%v, %v)", pts[1].Latitude, pts[1].Longitude)
	}
	if !pts[1].Timestamp.Equal(samples[1].Timestamp) {
		t.Errorf("second timestamp = %v, want %v", pts[1].Timestamp, samples[1].Timestamp)
	}
}

func TestExportGPX_Empty(t *testing.T) {
	if _, err := ExportGPX("s", nil); err == nil {
		t.Fatal("expected error for empty session")
	}
}
