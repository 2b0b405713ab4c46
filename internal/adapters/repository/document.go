package repository

import (
	"github.com/okian/toplanma/internal/domain/model"
)

// The document keeps the field names downstream consumers already read.
type (
	provinceDoc struct {
		ProvinceID int                    `json:"ilId"`
		Districts  map[string]districtDoc `json:"ilceler"`
	}
	districtDoc struct {
		DistrictID    model.ID                   `json:"ilceId"`
		Neighborhoods map[string]neighborhoodDoc `json:"mahalleler"`
	}
	neighborhoodDoc struct {
		NeighborhoodID model.ID                  `json:"mahalleId"`
		Streets        map[string]streetDoc      `json:"sokaklar"`
		GatheringAreas map[string]map[string]any `json:"toplanmaAlanlari"`
	}
	streetDoc struct {
		StreetID model.ID `json:"sokakId"`
	}
)

// document renders p keyed by unit names. Units sharing a name at the same
// level collapse to the last one listed.
func document(p *model.Province) map[string]provinceDoc {
	prov := provinceDoc{ProvinceID: p.Code, Districts: make(map[string]districtDoc, len(p.Districts))}
	for _, d := range p.Districts {
		dist := districtDoc{DistrictID: d.ID, Neighborhoods: make(map[string]neighborhoodDoc, len(d.Neighborhoods))}
		for _, n := range d.Neighborhoods {
			nb := neighborhoodDoc{
				NeighborhoodID: n.ID,
				Streets:        make(map[string]streetDoc, len(n.Streets)),
				GatheringAreas: make(map[string]map[string]any, len(n.GatheringAreas)),
			}
			for _, s := range n.Streets {
				nb.Streets[s.Name] = streetDoc{StreetID: s.ID}
			}
			for id, a := range n.GatheringAreas {
				props := a.Properties
				if props == nil {
					props = map[string]any{}
				}
				nb.GatheringAreas[id] = props
			}
			dist.Neighborhoods[n.Name] = nb
		}
		prov.Districts[d.Name] = dist
	}
	return map[string]provinceDoc{p.Name: prov}
}
