package models

// ReceiverRecord is one row of the capcode directory.
type ReceiverRecord struct {
	Capcode     string
	Discipline  string
	Region      string
	Location    string
	Description string
	Remark      string
}

// GeoCacheEntry is one row of the local geocode cache.
type GeoCacheEntry struct {
	Address   string
	Latitude  float64
	Longitude float64
	MapURL    string
}
