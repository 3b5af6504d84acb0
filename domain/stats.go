package domain

// Stats summarizes the current identity's own records: how many artworks
// they published and the total views and likes across them. It must equal
// the fold of the owned-record set at every observable instant, so callers
// adjust it in the same step as the record mutation it reflects.
type Stats struct {
	Artworks int `json:"artworks"`
	Views    int `json:"views"`
	Likes    int `json:"likes"`
}

// Add folds one record into the totals.
func (s *Stats) Add(a Artwork) {
	s.Artworks++
	s.Views += a.Views
	s.Likes += a.Likes
}

// Remove retracts one record's full contribution.
func (s *Stats) Remove(a Artwork) {
	s.Artworks--
	s.Views -= a.Views
	s.Likes -= a.Likes
}

// FoldStats recomputes totals for the records owned by ownerID.
func FoldStats(records []Artwork, ownerID string) Stats {
	var s Stats
	for _, a := range records {
		if a.OwnerID == ownerID {
			s.Add(a)
		}
	}
	return s
}
