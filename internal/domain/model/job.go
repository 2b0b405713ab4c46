package model

// NeighborhoodJob is one unit of work for the neighborhood worker pool.
type NeighborhoodJob struct {
	ProvinceCode int
	DistrictID   ID
	Neighborhood Unit
	// Index is the neighborhood's position in the portal listing.
	Index int
}
