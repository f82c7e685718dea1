package datasource

import (
	"math"
	"strconv"

	"github.com/okian/peereval/internal/domain/model"
)

// Catalog file columns besides the six metrics.
const (
	colPokeNum  = "poke_num"
	colPokeName = "poke_name"
)

// LoadCatalog reads the reference catalog. Rows whose id or stats do not
// parse are skipped and counted.
func LoadCatalog(path string) ([]model.Entity, int, error) {
	const op = "datasource.load_catalog"
	required := []string{colPokeNum, colPokeName}
	for _, m := range model.Metrics {
		required = append(required, string(m))
	}
	t, err := readTable(op, path, required...)
	if err != nil {
		return nil, 0, err
	}

	out := make([]model.Entity, 0, len(t.rows))
	skipped := 0
	for _, row := range t.rows {
		e, ok := parseEntity(t, row)
		if !ok {
			skipped++
			continue
		}
		out = append(out, e)
	}
	return out, skipped, nil
}

func parseEntity(t *table, row []string) (model.Entity, bool) {
	id, err := strconv.Atoi(t.get(row, colPokeNum))
	if err != nil {
		return model.Entity{}, false
	}
	var vals [model.MetricCount]float64
	for i, m := range model.Metrics {
		v, err := strconv.ParseFloat(t.get(row, string(m)), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return model.Entity{}, false
		}
		vals[i] = v
	}
	return model.Entity{ID: id, Name: t.get(row, colPokeName), Stats: model.VectorOf(vals)}, true
}
