// internal/regress/dataset.go
package regress

import "fmt"

// FromRows builds observations from named-column rows. Every variable the
// Spec names must be present in every row; rows are kept in input order.
func FromRows(spec Spec, rows []map[string]float64) ([]Observation, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	obs := make([]Observation, 0, len(rows))
	for i, row := range rows {
		dep, ok := row[spec.Dependent]
		if !ok {
			return nil, fmt.Errorf("row %d: dependent variable %q absent", i, spec.Dependent)
		}
		o := Observation{Dependent: dep, Independents: make([]float64, len(spec.Independents))}
		for j, name := range spec.Independents {
			v, ok := row[name]
			if !ok {
				return nil, fmt.Errorf("row %d: independent variable %q absent", i, name)
			}
			o.Independents[j] = v
		}
		obs = append(obs, o)
	}
	return obs, nil
}
