package game

import "github.com/vovakirdan/wingo/internal/content"

// addStatus merges s into the collection: an existing status with the same id
// gains the stacks and duration of s, otherwise s is appended. Every stack
// counts toward the run's StatusesApplied metric.
func (r *Run) addStatus(s Status) {
	list := &r.Boss.Statuses
	if s.Target == content.TargetPlayer {
		list = &r.Player.Statuses
	}
	r.Metrics.StatusesApplied += s.Stacks

	for i := range *list {
		existing := &(*list)[i]
		if existing.ID != s.ID {
			continue
		}
		existing.Stacks += s.Stacks
		if s.Duration != nil {
			d := *s.Duration
			if existing.Duration != nil {
				d += *existing.Duration
			}
			existing.Duration = &d
		}
		return
	}
	if s.Duration != nil {
		d := *s.Duration
		s.Duration = &d
	}
	*list = append(*list, s)
}

func (r *Run) grant(g content.StatusGrant) {
	s := Status{ID: g.ID, Stacks: g.Stacks, Target: g.Target}
	if g.Duration > 0 {
		s.Duration = ptr(g.Duration)
	}
	r.addStatus(s)
}

func findStatus(list []Status, id string) (int, *Status) {
	for i := range list {
		if list[i].ID == id {
			return i, &list[i]
		}
	}
	return -1, nil
}

func stacksOf(list []Status, id string) int {
	if _, s := findStatus(list, id); s != nil {
		return s.Stacks
	}
	return 0
}

// tickStatus spends one duration of status id. A status without a duration
// uses its stacks as the remaining duration. It returns the list with the
// status removed once nothing remains.
func tickStatus(list []Status, id string) []Status {
	i, s := findStatus(list, id)
	if s == nil {
		return list
	}
	remaining := s.Stacks
	if s.Duration != nil {
		remaining = *s.Duration
	}
	remaining--
	if remaining <= 0 {
		return removeStatus(list, i)
	}
	s.Duration = ptr(remaining)
	return list
}

func removeStatus(list []Status, i int) []Status {
	return append(list[:i], list[i+1:]...)
}

// remaining returns the turns a status has left.
func remaining(s *Status) int {
	if s.Duration != nil {
		return *s.Duration
	}
	return s.Stacks
}

func ptr(v int) *int { return &v }
