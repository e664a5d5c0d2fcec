package scoring

import (
	"strings"

	"github.com/artem13815/jobmatch/pkg/nlp"
	"github.com/artem13815/jobmatch/pkg/vacancy"
)

const (
	locationSameCity     = 100.0
	locationRemote       = 100.0
	locationNearby       = 90.0
	locationHybrid       = 80.0
	locationUnknown      = 50.0
	locationSameCountry  = 30.0
	locationIncompatible = 0.0
)

// locationFit compares the candidate's free-text location with the job's city.
// Remote jobs are decided before any city comparison, so remote never scores below onsite.
// Only the candidate's first segment ("Berlin" in "Berlin, Germany") is compared with the city.
func locationFit(candidate string, req vacancy.Requirement) verdict {
	if req.IsRemote || req.WorkMode == vacancy.WorkModeRemote {
		return verdict{score: locationRemote, note: "remote position"}
	}
	cand := nlp.NormalizeText(candidate)
	candCity := nlp.NormalizeText(firstSegment(candidate))
	jobCity := nlp.NormalizeText(req.Location.City)
	jobCountry := nlp.NormalizeText(req.Location.Country)

	if cand == "" || (jobCity == "" && jobCountry == "") {
		return verdict{score: locationUnknown, note: "location data incomplete"}
	}
	if jobCity != "" {
		switch {
		case candCity == jobCity || nlp.SameCity(candCity, jobCity):
			return verdict{score: locationSameCity, note: "same city (" + req.Location.City + ")"}
		// district or suburb spelled after the city name
		case nlp.StartsWithPhrase(candCity, jobCity) || nlp.StartsWithPhrase(jobCity, candCity):
			return verdict{score: locationNearby, note: "location close to " + req.Location.City}
		}
	}
	if req.WorkMode == vacancy.WorkModeHybrid {
		return verdict{score: locationHybrid, note: "hybrid position"}
	}
	if jobCountry != "" && nlp.ContainsPhrase(cand, jobCountry) {
		return verdict{score: locationSameCountry, note: "same country, different city"}
	}
	return verdict{score: locationIncompatible, note: "onsite position in a different location"}
}

func firstSegment(s string) string {
	if i := strings.IndexAny(s, ",;/"); i >= 0 {
		return s[:i]
	}
	return s
}
