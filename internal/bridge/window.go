package bridge

import (
	"fmt"
	"time"

	"github.com/vikerian/dashboarder-go/internal/store"
)

// DefaultWindowRadius ohraničuje prohledávání úložiště kolem cílového času.
const DefaultWindowRadius = 10 * time.Second

// Window je uzavřený interval [Start, End] kolem Target.
type Window struct {
	Target time.Time
	Start  time.Time
	End    time.Time
}

// NewWindow spočítá [ts-radius, ts+radius] v UTC.
func NewWindow(ts int64, radius time.Duration) Window {
	target := time.Unix(ts, 0).UTC()
	return Window{
		Target: target,
		Start:  target.Add(-radius),
		End:    target.Add(radius),
	}
}

// Contains platí pro obě meze.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Query převede okno na dotaz nad danou řadou a polem.
func (w Window) Query(series, field string) store.RangeQuery {
	return store.RangeQuery{Series: series, Field: field, Start: w.Start, End: w.End}
}

// MatchPolicy rozhoduje, který záznam z okna vrátit.
type MatchPolicy string

const (
	// MatchExact vrací jen záznam přesně v cílové sekundě. Okno jen omezuje scan.
	MatchExact MatchPolicy = "exact"
	// MatchNearest vrací nejbližší záznam v okně, při shodě ten dřívější.
	MatchNearest MatchPolicy = "nearest"
)

// ParseMatchPolicy převede konfigurační řetězec na MatchPolicy.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch p := MatchPolicy(s); p {
	case MatchExact, MatchNearest:
		return p, nil
	default:
		return "", fmt.Errorf("unknown match policy %q (exact|nearest)", s)
	}
}

// SelectRecord vybere záznam podle politiky. Záznamy mimo okno ignoruje.
func SelectRecord(records []store.Record, w Window, policy MatchPolicy) (store.Record, bool) {
	var (
		best     store.Record
		bestDist time.Duration
		found    bool
	)
	target := w.Target.Unix()

	for _, r := range records {
		if !w.Contains(r.Time) {
			continue
		}
		if policy != MatchNearest {
			if r.Time.Unix() == target {
				return r, true
			}
			continue
		}

		dist := r.Time.Sub(w.Target).Abs()
		if !found || dist < bestDist || (dist == bestDist && r.Time.Before(best.Time)) {
			best, bestDist, found = r, dist, true
		}
	}
	return best, found
}
