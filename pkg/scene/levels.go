package scene

// LevelSet partitions objects by their number of ancestors. Level 0 holds
// roots. Objects keep their input order within a level.
type LevelSet [][]*Object

// Levels buckets objects by AncestorCount.
func Levels(objects []*Object) LevelSet {
	var levels LevelSet
	for _, o := range objects {
		d := o.AncestorCount()
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], o)
	}
	return levels
}

// Depth returns the number of levels.
func (l LevelSet) Depth() int {
	return len(l)
}

// Len returns the number of objects across all levels.
func (l LevelSet) Len() int {
	n := 0
	for _, level := range l {
		n += len(level)
	}
	return n
}
