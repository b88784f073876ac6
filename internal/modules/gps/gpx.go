// README: GPX 1.1 export of a session's samples.
package gps

import (
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"
)

const gpxCreator = "fitapp"

// ExportGPX renders the samples as a single-track, single-segment GPX
// document. Samples are written in the order given.
func ExportGPX(sessionID string, samples []Sample) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("session %s has no samples", sessionID)
	}

	segment := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(samples))}
	for _, p := range samples {
		segment.Points = append(segment.Points, gpx.GPXPoint{
			Point: gpx.Point{
				Latitude:  p.Latitude,
				Longitude: p.Longitude,
			},
			Timestamp: p.Timestamp.UTC(),
		})
	}

	track := gpx.GPXTrack{Name: sessionID, Segments: []gpx.GPXTrackSegment{segment}}
	if a := samples[len(samples)-1].Activity; a != "" {
		track.Type = string(a)
	}

	doc := &gpx.GPX{
		Version: "1.1",
		Creator: gpxCreator,
		Tracks:  []gpx.GPXTrack{track},
	}
	return doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
}
