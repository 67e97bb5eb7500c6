package core

// Dimensions are the distinct worker, client and task names found in a
// record set, offered to rule authors as suggestions.
type Dimensions struct {
	Workers []string `json:"workers"`
	Clients []string `json:"clients"`
	Tasks   []string `json:"tasks"`
}

// ExtractDimensions collects distinct dimension values in first-seen order.
// A record's worker is the first non-empty of its worker, name and id fields.
// Empty values are skipped.
func ExtractDimensions(records RecordSet) Dimensions {
	workers := newDistinct()
	clients := newDistinct()
	tasks := newDistinct()

	for _, rec := range records {
		workers.add(firstNonEmpty(rec, "worker", "name", "id"))
		clients.add(FormatValue(rec["client"]))
		tasks.add(FormatValue(rec["task"]))
	}

	return Dimensions{
		Workers: workers.values,
		Clients: clients.values,
		Tasks:   tasks.values,
	}
}

func firstNonEmpty(rec Record, fields ...string) string {
	for _, f := range fields {
		if s := FormatValue(rec[f]); s != "" {
			return s
		}
	}
	return ""
}

type distinct struct {
	seen   map[string]bool
	values []string
}

func newDistinct() *distinct {
	return &distinct{seen: make(map[string]bool), values: []string{}}
}

func (d *distinct) add(s string) {
	if s == "" || d.seen[s] {
		return
	}
	d.seen[s] = true
	d.values = append(d.values, s)
}
