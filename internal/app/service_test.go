package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	service "github.com/okian/toplanma/internal/app"
	"github.com/okian/toplanma/internal/config"
	"github.com/okian/toplanma/internal/domain/model"
	"github.com/okian/toplanma/internal/portal"
	"github.com/okian/toplanma/internal/portaltest"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeWalker struct {
	errs map[int]error
}

func (f *fakeWalker) WalkProvince(_ context.Context, ref model.ProvinceRef) (*model.Province, error) {
	if err := f.errs[ref.Code]; err != nil {
		return nil, err
	}
	return &model.Province{Code: ref.Code, Name: ref.Name}, nil
}

type memStore struct {
	mu    sync.Mutex
	saved []string
	fail  map[int]error
}

func (m *memStore) SaveProvince(_ context.Context, p *model.Province) (string, error) {
	if err := m.fail[p.Code]; err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, p.Name)
	return p.Name + ".json", nil
}

var refs = []model.ProvinceRef{{Code: 1, Name: "Adana"}, {Code: 2, Name: "Adıyaman"}, {Code: 46, Name: "Kahramanmaraş"}, {Code: 27, Name: "Gaziantep"}}

func TestService_Run(t *testing.T) {
	Convey("Given a service over four provinces", t, func() {
		ctx := context.Background()
		walker := &fakeWalker{errs: map[int]error{2: portal.ErrTransientService}}
		store := &memStore{fail: map[int]error{46: errors.New("disk full")}}
		svc := service.New(walker, store, refs, service.WithRunID("run-1"))

		Convey("When provinces fail in walking and in writing", func() {
			err := svc.Run(ctx)

			Convey("Then the others are still written", func() {
				So(err, ShouldBeNil)
				So(store.saved, ShouldResemble, []string{"Adana", "Gaziantep"})
			})

			Convey("Then stats report the outcome", func() {
				stats := svc.GetStats()
				So(stats["runId"], ShouldEqual, "run-1")
				So(stats["running"], ShouldEqual, false)
				So(stats["provincesWritten"], ShouldEqual, 2)
				So(stats["provincesFailed"], ShouldEqual, 2)
				So(stats["failedProvinces"], ShouldResemble, []int{2, 46})
				So(stats["finishedAt"], ShouldNotBeNil)
			})
		})

		Convey("When authentication fails", func() {
			walker.errs[2] = portal.ErrAuthentication
			err := svc.Run(ctx)

			Convey("Then the run aborts", func() {
				So(errors.Is(err, portal.ErrAuthentication), ShouldBeTrue)
				So(store.saved, ShouldResemble, []string{"Adana"})
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := svc.Run(cctx)

			Convey("Then nothing is written", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(store.saved, ShouldBeEmpty)
			})
		})
	})

	Convey("Given services built without a run id", t, func() {
		a := service.New(&fakeWalker{}, &memStore{}, nil)
		b := service.New(&fakeWalker{}, &memStore{}, nil)

		Convey("Then each gets a distinct one", func() {
			So(a.RunID(), ShouldNotBeEmpty)
			So(a.RunID(), ShouldNotEqual, b.RunID())
		})
	})
}

func TestService_EndToEnd(t *testing.T) {
	Convey("Given a fake portal serving one province", t, func() {
		fake := portaltest.New()
		fake.Districts[31] = []model.Unit{{ID: "1", Name: "Antakya"}}
		fake.Neighborhoods[portaltest.Key(31, 1)] = []model.Unit{{ID: "10", Name: "Odabaşı"}, {ID: "11", Name: "Cumhuriyet"}}
		fake.Streets[portaltest.Key(31, 1, 10)] = []model.Unit{{ID: "100", Name: "Kurtuluş Cd."}}
		fake.Maps[portaltest.Key(31, 1, 10)] = portaltest.Polygon(orb.Ring{{0, 0}, {2, 0}, {2, 1}, {2, 2}, {1, 2}, {0, 2}, {0, 1}, {0, 0}})
		fake.Maps[portaltest.Key(31, 1, 11)] = "null"
		fake.Points[orb.Point{0, 0}] = []map[string]any{{"id": 7, "ad": "Park"}}
		fake.Points[orb.Point{2, 0}] = []map[string]any{{"id": 8, "ad": "Okul Bahçesi"}}
		fake.Points[orb.Point{2, 2}] = []map[string]any{{"id": 7, "ad": "Park"}}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		cfg := config.New()
		cfg.BaseURL = srv.URL
		cfg.OutputDir = t.TempDir()
		cfg.Provinces = []config.Province{{Code: 31, Name: "Hatay"}}
		cfg.WorkerCount = 2
		cfg.BackoffInitialMS = 1
		cfg.BackoffMaxMS = 5
		So(cfg.Validate(), ShouldBeNil)

		svc, err := service.NewFromConfig(cfg)
		So(err, ShouldBeNil)

		Convey("When the run completes", func() {
			So(svc.Run(context.Background()), ShouldBeNil)

			raw, err := os.ReadFile(filepath.Join(cfg.OutputDir, "Hatay.json"))
			So(err, ShouldBeNil)
			var doc map[string]map[string]any
			So(json.Unmarshal(raw, &doc), ShouldBeNil)
			mahalleler := doc["Hatay"]["ilceler"].(map[string]any)["Antakya"].(map[string]any)["mahalleler"].(map[string]any)

			Convey("Then the neighborhood carries its merged areas", func() {
				areas := mahalleler["Odabaşı"].(map[string]any)["toplanmaAlanlari"].(map[string]any)
				So(len(areas), ShouldEqual, 2)
				So(areas["8"].(map[string]any)["ad"], ShouldEqual, "Okul Bahçesi")
			})

			Convey("Then a neighborhood without a polygon has no areas", func() {
				So(mahalleler["Cumhuriyet"].(map[string]any)["toplanmaAlanlari"], ShouldResemble, map[string]any{})
			})

			Convey("Then unique areas are tracked for the run", func() {
				So(svc.GetStats()["uniqueAreas"], ShouldEqual, int64(2))
				So(fake.TokensIssued(), ShouldEqual, 1)
			})
		})
	})
}
