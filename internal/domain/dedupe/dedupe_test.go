package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/toplanma/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(8))

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, int64(0))
		})

		Convey("When an area id is new", func() {
			fresh := d.RecordAll(ctx, []string{"501"})

			Convey("Then it is recorded", func() {
				So(fresh, ShouldEqual, 1)
				So(d.Size(), ShouldEqual, int64(1))
			})
		})

		Convey("When an area id repeats across neighborhoods", func() {
			d.RecordAll(ctx, []string{"501"})
			fresh := d.RecordAll(ctx, []string{"501"})

			Convey("Then it is counted once", func() {
				So(fresh, ShouldEqual, 0)
				So(d.Size(), ShouldEqual, int64(1))
			})
		})

		Convey("When a neighborhood's ids are recorded together", func() {
			d.RecordAll(ctx, []string{"A"})
			fresh := d.RecordAll(ctx, []string{"A", "B", "C", "B"})

			Convey("Then only unseen ids are new", func() {
				So(fresh, ShouldEqual, 2)
				So(d.Size(), ShouldEqual, int64(3))
			})
		})

		Convey("When nothing is recorded", func() {
			So(d.RecordAll(ctx, nil), ShouldEqual, 0)
			So(d.Size(), ShouldEqual, int64(0))
		})
	})

	Convey("Given a deduper shared by workers", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		Convey("When goroutines record overlapping ids", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for w := 0; w < 10; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ids := make([]string, 100)
					for i := range ids {
						ids[i] = fmt.Sprintf("area-%d", i)
					}
					n := d.RecordAll(ctx, ids)
					mu.Lock()
					fresh += n
					mu.Unlock()
				}()
			}
			wg.Wait()

			Convey("Then each id is new exactly once", func() {
				So(fresh, ShouldEqual, 100)
				So(d.Size(), ShouldEqual, int64(100))
			})
		})
	})
}
