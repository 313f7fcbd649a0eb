package exam

import "github.com/adomako/registrar/internal/model"

// Transition is the outcome of one progression step. A nil NextLevel with
// Graduates false means no change.
type Transition struct {
	NextLevel *model.ClassLevel
	Graduates bool
}

type rule struct {
	fromLevelID int64
	termOrdinal int
	next        *model.ClassLevel
	graduates   bool
}

// Ladder is the data-driven class-level progression table. It is built
// from the ordered level sequence: passing the term whose ordinal matches
// a level's rank moves the student up one rung, and passing the final
// term at the top rung graduates them. Extending the ladder means adding
// a class_levels row, not touching submission code.
type Ladder struct {
	rules []rule
}

// NewLadder builds the transition table from levels ordered by rank.
func NewLadder(levels []model.ClassLevel) *Ladder {
	l := &Ladder{}
	for i := range levels {
		r := rule{
			fromLevelID: levels[i].ID,
			termOrdinal: levels[i].Rank,
		}
		if i < len(levels)-1 {
			next := levels[i+1]
			r.next = &next
		} else {
			r.graduates = true
		}
		l.rules = append(l.rules, r)
	}
	return l
}

// Next returns the transition for a passing result at the given current
// level and term. At most one rule can match since a student holds one
// level at a time; any other (level, term) combination is a no-change.
func (l *Ladder) Next(currentLevelID int64, termOrdinal int) Transition {
	for _, r := range l.rules {
		if r.fromLevelID == currentLevelID && r.termOrdinal == termOrdinal {
			return Transition{NextLevel: r.next, Graduates: r.graduates}
		}
	}
	return Transition{}
}
