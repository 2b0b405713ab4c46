package geo_test

import (
	"testing"

	"github.com/okian/toplanma/internal/domain/geo"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSample(t *testing.T) {
	Convey("Given polygon outer rings", t, func() {
		Convey("When the ring has fewer than six vertices", func() {
			ring := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}
			points := geo.Sample(ring)

			Convey("Then every vertex is returned unchanged", func() {
				So(len(points), ShouldEqual, len(ring))
				for i := range ring {
					So(points[i], ShouldResemble, ring[i])
				}
			})

			Convey("Then the result does not alias the input", func() {
				points[0] = orb.Point{9, 9}
				So(ring[0], ShouldResemble, orb.Point{0, 0})
			})
		})

		Convey("When the ring is the eight-point square", func() {
			ring := orb.Ring{{0, 0}, {2, 0}, {2, 1}, {2, 2}, {1, 2}, {0, 2}, {0, 1}, {0, 0}}
			points := geo.Sample(ring)

			Convey("Then four extremes by first occurrence and their mean are chosen", func() {
				So(len(points), ShouldEqual, 5)
				So(points[0], ShouldResemble, orb.Point{0, 0}) // min x
				So(points[1], ShouldResemble, orb.Point{0, 0}) // min y
				So(points[2], ShouldResemble, orb.Point{2, 0}) // max x
				So(points[3], ShouldResemble, orb.Point{2, 2}) // max y
				So(points[4], ShouldResemble, orb.Point{1, 0.5})
			})

			Convey("Then repeated sampling is deterministic", func() {
				So(geo.Sample(ring), ShouldResemble, points)
			})
		})

		Convey("When the ring has exactly six vertices", func() {
			ring := orb.Ring{{36.1, 36.2}, {36.3, 36.1}, {36.5, 36.4}, {36.4, 36.6}, {36.2, 36.5}, {36.1, 36.2}}
			points := geo.Sample(ring)

			Convey("Then it is reduced to five points", func() {
				So(len(points), ShouldEqual, 5)
				So(points[0], ShouldResemble, orb.Point{36.1, 36.2})
				So(points[1], ShouldResemble, orb.Point{36.3, 36.1})
				So(points[2], ShouldResemble, orb.Point{36.5, 36.4})
				So(points[3], ShouldResemble, orb.Point{36.4, 36.6})
				So(points[4].X(), ShouldAlmostEqual, (36.1+36.3+36.5+36.4)/4, 1e-9)
				So(points[4].Y(), ShouldAlmostEqual, (36.2+36.1+36.4+36.6)/4, 1e-9)
			})
		})

		Convey("When the ring is empty", func() {
			So(len(geo.Sample(nil)), ShouldEqual, 0)
		})
	})
}

func TestOuterRing(t *testing.T) {
	Convey("Given decoded geometries", t, func() {
		outer := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}
		hole := orb.Ring{{0.2, 0.2}, {0.3, 0.2}, {0.3, 0.3}, {0.2, 0.2}}

		Convey("Then a polygon yields its first ring and ignores holes", func() {
			ring, ok := geo.OuterRing(orb.Polygon{outer, hole})
			So(ok, ShouldBeTrue)
			So(ring, ShouldResemble, outer)
		})

		Convey("Then a multipolygon yields the first polygon's outer ring", func() {
			ring, ok := geo.OuterRing(orb.MultiPolygon{{outer}, {hole}})
			So(ok, ShouldBeTrue)
			So(ring, ShouldResemble, outer)
		})

		Convey("Then points and empty polygons yield nothing", func() {
			_, ok := geo.OuterRing(orb.Point{1, 1})
			So(ok, ShouldBeFalse)
			_, ok = geo.OuterRing(orb.Polygon{})
			So(ok, ShouldBeFalse)
		})
	})
}
