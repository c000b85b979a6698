package tracker

import (
	"github.com/twpayne/go-polyline"
)

// TrackPolyline returns the recent position trail of a train as an encoded
// polyline, suitable for drawing without shipping raw coordinate lists.
// The second return is false when the train has no recorded trail.
func (manager *Manager) TrackPolyline(trainNo string) (string, bool) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	trail, ok := manager.tracks[trainNo]
	if !ok || len(trail) == 0 {
		return "", false
	}

	coords := make([][]float64, len(trail))
	for i, point := range trail {
		coords[i] = []float64{point[0], point[1]}
	}
	return string(polyline.EncodeCoords(coords)), true
}
