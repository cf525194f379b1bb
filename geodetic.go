package smd

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Geodetic is a position relative to the reference ellipsoid of a body.
type Geodetic struct {
	Latitude  float64 // rad
	Longitude float64 // rad
	Altitude  float64 // m
}

// ECEFToGeodetic converts a body fixed position to geodetic coordinates using Bowring's
// initial estimate followed by a few fixed point iterations.
func ECEFToGeodetic(R r3.Vec, body CelestialObject) Geodetic {
	a := body.Radius
	e2 := body.Flattening * (2 - body.Flattening)
	lon := math.Atan2(R.Y, R.X)
	p := math.Hypot(R.X, R.Y)
	lat := math.Atan2(R.Z, p*(1-e2))
	for i := 0; i < 5; i++ {
		sLat := math.Sin(lat)
		N := a / math.Sqrt(1-e2*sLat*sLat)
		lat = math.Atan2(R.Z+e2*N*sLat, p)
	}
	sLat, cLat := math.Sincos(lat)
	N := a / math.Sqrt(1-e2*sLat*sLat)
	var alt float64
	if math.Abs(cLat) > 1e-10 {
		alt = p/cLat - N
	} else {
		alt = math.Abs(R.Z)/math.Abs(sLat) - N*(1-e2)
	}
	return Geodetic{Latitude: lat, Longitude: lon, Altitude: alt}
}

// GeodeticToECEF converts the geodetic coordinates to a body fixed position.
func GeodeticToECEF(g Geodetic, body CelestialObject) r3.Vec {
	e2 := body.Flattening * (2 - body.Flattening)
	sLat, cLat := math.Sincos(g.Latitude)
	sLon, cLon := math.Sincos(g.Longitude)
	N := body.Radius / math.Sqrt(1-e2*sLat*sLat)
	return r3.Vec{
		X: (N + g.Altitude) * cLat * cLon,
		Y: (N + g.Altitude) * cLat * sLon,
		Z: (N*(1-e2) + g.Altitude) * sLat,
	}
}
