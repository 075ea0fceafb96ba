package exporter

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/crowdlab/crowdlab/internal/domain"
)

// csvTable accumulates flattened rows for one export. Entity columns are
// prefixed "<prefix>__" and info keys "<prefix>info__"; the column set is
// the union over all rows, sorted, so every row renders the same width.
type csvTable struct {
	prefix     string
	entityCols map[string]bool
	infoCols   map[string]bool
	rows       []tableRow
}

type tableRow struct {
	entity map[string]any
	info   domain.Info
}

func newCSVTable(prefix string) *csvTable {
	return &csvTable{
		prefix:     prefix,
		entityCols: make(map[string]bool),
		infoCols:   make(map[string]bool),
	}
}

// add flattens one entity into the table. The entity's JSON fields
// become the entity columns; its info keys become the info columns.
func (t *csvTable) add(entity any, info domain.Info) {
	data, err := json.Marshal(entity)
	if err != nil {
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return
	}
	delete(fields, "info")

	for k := range fields {
		t.entityCols[k] = true
	}
	for k := range info {
		t.infoCols[k] = true
	}
	t.rows = append(t.rows, tableRow{entity: fields, info: info})
}

// headers returns the full column list in rendering order.
func (t *csvTable) headers() []string {
	headers := make([]string, 0, len(t.entityCols)+len(t.infoCols))
	for _, col := range sortedKeys(t.entityCols) {
		headers = append(headers, t.prefix+"__"+col)
	}
	for _, col := range sortedKeys(t.infoCols) {
		headers = append(headers, t.prefix+"info__"+col)
	}
	return headers
}

// materialize renders every row against the final column set.
func (t *csvTable) materialize() [][]string {
	entityOrder := sortedKeys(t.entityCols)
	infoOrder := sortedKeys(t.infoCols)

	out := make([][]string, 0, len(t.rows))
	for _, row := range t.rows {
		cells := make([]string, 0, len(entityOrder)+len(infoOrder))
		for _, col := range entityOrder {
			cells = append(cells, cell(row.entity[col]))
		}
		for _, col := range infoOrder {
			cells = append(cells, cell(row.info[col]))
		}
		out = append(out, cells)
	}
	return out
}

// cell renders a single value. Composite values stay JSON so the column
// round-trips.
func cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return fmt.Sprintf("%t", val)
	case float64:
		return trimFloat(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

// trimFloat prints integral floats without a decimal point, matching how
// ids and counts look in the source rows.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
