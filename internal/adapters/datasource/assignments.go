package datasource

// Assignment file columns.
const (
	colRaterID  = "rater_id"
	colTargetID = "target_id"
)

// LoadAssignments reads the peer assignment file into rater -> targets in
// file order. Blank rows and repeated pairs are dropped.
func LoadAssignments(path string) (map[string][]string, error) {
	const op = "datasource.load_assignments"
	t, err := readTable(op, path, colRaterID, colTargetID)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string)
	seen := make(map[[2]string]struct{})
	for _, row := range t.rows {
		rater, target := t.get(row, colRaterID), t.get(row, colTargetID)
		if rater == "" || target == "" {
			continue
		}
		pair := [2]string{rater, target}
		if _, dup := seen[pair]; dup {
			continue
		}
		seen[pair] = struct{}{}
		out[rater] = append(out[rater], target)
	}
	return out, nil
}
