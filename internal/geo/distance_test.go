package geo

import (
	"math"
	"testing"
)

func TestHaversineZeroForSamePoint(t *testing.T) {
	points := []Point{
		{Lat: 25.7617, Lng: -80.1918}, // Miami
		{Lat: 0, Lng: 0},
		{Lat: -33.8688, Lng: 151.2093}, // Sydney
	}

	for _, p := range points {
		if got := Haversine(p, p); got != 0 {
			t.Errorf("Haversine(%v, %v) = %v, want 0", p, p, got)
		}
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := Point{Lat: 25.7617, Lng: -80.1918}  // Miami
	b := Point{Lat: 28.5383, Lng: -81.3792}  // Orlando

	ab := Haversine(a, b)
	ba := Haversine(b, a)
	if ab != ba {
		t.Errorf("Haversine not symmetric: %v vs %v", ab, ba)
	}
	if ab < 0 {
		t.Errorf("Haversine returned negative distance %v", ab)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Miami to Orlando is roughly 330 km great-circle.
	a := Point{Lat: 25.7617, Lng: -80.1918}
	b := Point{Lat: 28.5383, Lng: -81.3792}

	got := Haversine(a, b)
	if got < 320 || got > 345 {
		t.Errorf("Haversine(Miami, Orlando) = %v km, want roughly 330", got)
	}
}

func TestDistanceKmUnknown(t *testing.T) {
	valid := &Point{Lat: 25.7617, Lng: -80.1918}

	tests := []struct {
		name string
		a    *Point
		b    *Point
	}{
		{"both nil", nil, nil},
		{"first nil", nil, valid},
		{"second nil", valid, nil},
		{"NaN latitude", &Point{Lat: math.NaN(), Lng: 0}, valid},
		{"infinite longitude", &Point{Lat: 0, Lng: math.Inf(1)}, valid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := DistanceKm(tt.a, tt.b); ok {
				t.Errorf("DistanceKm(%v, %v) reported known distance, want unknown", tt.a, tt.b)
			}
		})
	}
}

func TestDistanceKmKnown(t *testing.T) {
	a := &Point{Lat: 25.7617, Lng: -80.1918}
	b := &Point{Lat: 25.7620, Lng: -80.1920}

	d, ok := DistanceKm(a, b)
	if !ok {
		t.Fatal("DistanceKm reported unknown for two valid points")
	}
	if d < 0 || d > 0.5 {
		t.Errorf("DistanceKm for adjacent points = %v km, want well under 0.5", d)
	}
}
