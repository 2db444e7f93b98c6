package repository

// stmt is one parameterized statement bound for execution, the unit the
// batch planners deal in.
type stmt struct {
	cql  string
	args []any
}

// projection describes one denormalized, independently keyed copy of a
// record: the statements that maintain it and how to build their bind
// arguments for a given key. The record's other fields are captured by the
// arg builders.
type projection struct {
	insert string
	update string
	remove string

	insertArgs func(key string) []any
	updateArgs func(key string) []any
}

// reconcile emits the statements that bring this projection in line with a
// record whose key moved from oldKey to newKey. A non-empty unchanged key
// refreshes the row in place. Any other transition removes the row under the
// old key (when one exists) and writes a row under the new key (when there
// is one), so a rename never leaves both rows live and a cleared key never
// leaves a dangling row.
func (p projection) reconcile(oldKey, newKey string) []stmt {
	if newKey != "" && newKey == oldKey {
		return []stmt{{p.update, p.updateArgs(newKey)}}
	}

	var out []stmt
	if oldKey != "" {
		out = append(out, stmt{p.remove, []any{oldKey}})
	}
	if newKey != "" {
		out = append(out, stmt{p.insert, p.insertArgs(newKey)})
	}
	return out
}

// drop emits the statement removing the row under key, if any row exists
// under it. Used by delete, which always targets the as-loaded key.
func (p projection) drop(key string) []stmt {
	if key == "" {
		return nil
	}
	return []stmt{{p.remove, []any{key}}}
}
