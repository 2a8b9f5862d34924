package bridge

// DedupState si pamatuje poslední přijatou dvojici (timestamp, temperature).
// Vlastní ho jediný Ingester. Nemá expiraci ani zámek: Dispatcher zaručuje,
// že zprávy zpracováváme jednu po druhé.
type DedupState struct {
	last Measurement
	set  bool
}

// NewDedupState vrátí prázdný stav.
func NewDedupState() *DedupState {
	return &DedupState{}
}

// SeededDedupState vrátí stav, jako by m bylo poslední uložené měření.
func SeededDedupState(m Measurement) *DedupState {
	return &DedupState{last: m, set: true}
}

// Accepts porovnává jen s bezprostředně předchozí dvojicí.
// Stejný čas s jinou teplotou projde.
func (s *DedupState) Accepts(m Measurement) bool {
	if !s.set {
		return true
	}
	return m.Timestamp != s.last.Timestamp || m.Temperature != s.last.Temperature
}

// Remember volat až po úspěšném zápisu do úložiště.
func (s *DedupState) Remember(m Measurement) {
	s.last = m
	s.set = true
}

// Last vrátí poslední přijaté měření.
func (s *DedupState) Last() (Measurement, bool) {
	return s.last, s.set
}
