// Package geo implements the in-memory geospatial store: named points and
// polygons, keyed by a shared string namespace, with radius search.
//
// Big idea:
//
//  1. Two maps (points, polygons) hold the authoritative values.
//  2. Two parallel indices hold (geometry, key) pairs for spatial lookup, so
//     a search never has to recover a key by comparing geometry values —
//     distinct keys that happen to share a geometry would otherwise alias.
//  3. The store itself takes no lock. Callers that need concurrent safety
//     (internal/cluster.Node) hold a single exclusive lock around it; there
//     is no reader/writer split.
package geo

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// earthRadiusM is the WGS-84 mean sphere radius used for haversine distance.
const earthRadiusM = 6371008.8

// LatLon is a coordinate pair in ingress/egress order: latitude first.
// The wire protocol and the WAL both speak in this order; storage converts
// to (lon, lat) at the boundary and converts back on GEOGET.
type LatLon struct {
	Lat, Lon float64
}

// Point is a single geographic location, stored internally as (lon, lat).
type Point struct {
	Lon, Lat float64
}

// Polygon is an ordered ring of vertices, no holes, stored internally in
// the same (lon, lat) order as Point.
type Polygon struct {
	Vertices []Point
}

type pointEntry struct {
	key string
	pt  Point
}

type polygonEntry struct {
	key  string
	poly Polygon
	bbox boundingBox
}

type boundingBox struct {
	minLon, minLat, maxLon, maxLat float64
}

// Database is the in-memory geospatial store: points and polygons keyed by
// a shared string namespace, with radius search over both.
// It is not safe for concurrent use by itself; the cluster.Node that owns
// one holds a single mutex around every call.
type Database struct {
	points   map[string]Point
	polygons map[string]Polygon

	pointIndex   []pointEntry
	polygonIndex []polygonEntry
}

// New returns an empty Database.
func New() *Database {
	return &Database{
		points:   make(map[string]Point),
		polygons: make(map[string]Polygon),
	}
}

// Add stores coords under key as a Point (single coordinate) or a Polygon
// (three or more). Two coordinates is a precondition violation the protocol
// layer already rejects; Add assumes well-formed input.
//
// The key namespace is shared between points and polygons: adding an
// existing key replaces whatever geometry — point or polygon — was there,
// removing its old index entry along with the old map entry.
func (d *Database) Add(key string, coords []LatLon) {
	d.removeKey(key)

	if len(coords) == 1 {
		pt := Point{Lon: coords[0].Lon, Lat: coords[0].Lat}
		d.points[key] = pt
		d.pointIndex = append(d.pointIndex, pointEntry{key: key, pt: pt})
		return
	}

	verts := make([]Point, len(coords))
	for i, c := range coords {
		verts[i] = Point{Lon: c.Lon, Lat: c.Lat}
	}
	poly := Polygon{Vertices: verts}
	d.polygons[key] = poly
	d.polygonIndex = append(d.polygonIndex, polygonEntry{key: key, poly: poly, bbox: envelope(poly)})
}

// removeKey deletes key from whichever map currently holds it (at most one,
// by invariant) along with its single index entry.
func (d *Database) removeKey(key string) {
	if _, ok := d.points[key]; ok {
		delete(d.points, key)
		for i, pe := range d.pointIndex {
			if pe.key == key {
				d.pointIndex = append(d.pointIndex[:i], d.pointIndex[i+1:]...)
				break
			}
		}
		return
	}
	if _, ok := d.polygons[key]; ok {
		delete(d.polygons, key)
		for i, pe := range d.polygonIndex {
			if pe.key == key {
				d.polygonIndex = append(d.polygonIndex[:i], d.polygonIndex[i+1:]...)
				break
			}
		}
	}
}

// Search returns keys within radiusM metres of (lat, lon): points first,
// nearest-first by haversine distance, then polygons whose degree-space
// bounding box overlaps the (also degree-space) search box. The polygon
// pass is a loose overlap filter, not a metric containment test, and
// callers must not read it as one.
func (d *Database) Search(lat, lon, radiusM float64) []string {
	center := Point{Lon: lon, Lat: lat}

	type scored struct {
		key  string
		dist float64
	}
	near := make([]scored, 0, len(d.pointIndex))
	for _, pe := range d.pointIndex {
		near = append(near, scored{key: pe.key, dist: haversine(pe.pt, center)})
	}
	sort.Slice(near, func(i, j int) bool { return near[i].dist < near[j].dist })

	var results []string
	for _, s := range near {
		if s.dist > radiusM {
			break
		}
		results = append(results, s.key)
	}

	search := boundingBox{
		minLon: lon - radiusM, maxLon: lon + radiusM,
		minLat: lat - radiusM, maxLat: lat + radiusM,
	}
	for _, pe := range d.polygonIndex {
		if boxesOverlap(pe.bbox, search) {
			results = append(results, pe.key)
		}
	}
	return results
}

// Get returns the formatted geometry for key in WKT-like egress form
// (lat/lon order, the reverse of internal storage), or ok=false on a miss.
func (d *Database) Get(key string) (string, bool) {
	if pt, ok := d.points[key]; ok {
		return fmt.Sprintf("POINT(%s %s)", formatCoord(pt.Lat), formatCoord(pt.Lon)), true
	}
	if poly, ok := d.polygons[key]; ok {
		parts := make([]string, len(poly.Vertices))
		for i, v := range poly.Vertices {
			parts[i] = fmt.Sprintf("%s %s", formatCoord(v.Lat), formatCoord(v.Lon))
		}
		return fmt.Sprintf("POLYGON((%s))", strings.Join(parts, ", ")), true
	}
	return "", false
}

// Keys returns every key currently stored, points and polygons together, in
// no particular order. Used by the debug façade, not the wire protocol.
func (d *Database) Keys() []string {
	keys := make([]string, 0, len(d.points)+len(d.polygons))
	for k := range d.points {
		keys = append(keys, k)
	}
	for k := range d.polygons {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns copies of the points and polygons maps for persistence.
func (d *Database) Snapshot() (points map[string]Point, polygons map[string]Polygon) {
	points = make(map[string]Point, len(d.points))
	for k, v := range d.points {
		points[k] = v
	}
	polygons = make(map[string]Polygon, len(d.polygons))
	for k, v := range d.polygons {
		polygons[k] = v
	}
	return points, polygons
}

// LoadFrom replaces the store's contents with points and polygons, rebuilding
// both spatial indices from scratch. Used when a snapshot is loaded at
// startup — the spatial indices themselves are never persisted.
func (d *Database) LoadFrom(points map[string]Point, polygons map[string]Polygon) {
	d.points = make(map[string]Point, len(points))
	d.polygons = make(map[string]Polygon, len(polygons))
	d.pointIndex = d.pointIndex[:0]
	d.polygonIndex = d.polygonIndex[:0]

	for k, v := range points {
		d.points[k] = v
		d.pointIndex = append(d.pointIndex, pointEntry{key: k, pt: v})
	}
	for k, v := range polygons {
		d.polygons[k] = v
		d.polygonIndex = append(d.polygonIndex, polygonEntry{key: k, poly: v, bbox: envelope(v)})
	}
}

func envelope(poly Polygon) boundingBox {
	box := boundingBox{
		minLon: math.Inf(1), minLat: math.Inf(1),
		maxLon: math.Inf(-1), maxLat: math.Inf(-1),
	}
	for _, v := range poly.Vertices {
		box.minLon = math.Min(box.minLon, v.Lon)
		box.maxLon = math.Max(box.maxLon, v.Lon)
		box.minLat = math.Min(box.minLat, v.Lat)
		box.maxLat = math.Max(box.maxLat, v.Lat)
	}
	return box
}

func boxesOverlap(a, b boundingBox) bool {
	return a.minLon <= b.maxLon && a.maxLon >= b.minLon &&
		a.minLat <= b.maxLat && a.maxLat >= b.minLat
}

// haversine is the great-circle distance between two points in metres,
// using the WGS-84 mean sphere radius.
func haversine(a, b Point) float64 {
	lat1, lon1 := a.Lat*math.Pi/180, a.Lon*math.Pi/180
	lat2, lon2 := b.Lat*math.Pi/180, b.Lon*math.Pi/180

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusM * c
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
