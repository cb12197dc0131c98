package library

import "math/rand"

// defaultWeight is the weight for unrated tracks in a channel with no rated
// tracks at all.
const defaultWeight = 2.5

// Pick selects a random track weighted by rating. Rated tracks weigh their
// star count; unrated tracks weigh their channel's average rating, or the
// default when the channel has no ratings. Returns false on an empty index.
//
// rng may be nil, in which case the shared source is used.
func (i *Index) Pick(rng *rand.Rand) (Track, bool) {
	type weighted struct {
		track  Track
		weight float64
	}

	var candidates []weighted
	var total float64
	for _, ch := range i.channels {
		tracks := i.tracks[ch]

		var sum, rated float64
		for _, t := range tracks {
			if t.Rating > 0 {
				sum += float64(t.Rating)
				rated++
			}
		}
		avg := defaultWeight
		if rated > 0 {
			avg = sum / rated
		}

		for _, t := range tracks {
			w := avg
			if t.Rating > 0 {
				w = float64(t.Rating)
			}
			candidates = append(candidates, weighted{track: t, weight: w})
			total += w
		}
	}

	if len(candidates) == 0 || total <= 0 {
		return Track{}, false
	}

	roll := total * floatFrom(rng)
	for _, c := range candidates {
		roll -= c.weight
		if roll < 0 {
			return c.track, true
		}
	}
	return candidates[len(candidates)-1].track, true
}

func floatFrom(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.Float64()
	}
	return rng.Float64()
}
