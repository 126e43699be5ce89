package course

// LockState maps every lesson of a course to whether it is locked.
type LockState map[string]bool

func (ls LockState) IsLocked(lessonID string) bool {
	return ls[lessonID]
}

// ResolveLocks walks the course in traversal order. A lesson is open when it
// is the first one, when it is already completed, or when the lesson right
// before it is completed. Modules without lessons are skipped, so they never
// block what follows.
//
// Quiz lessons only enter the completion set once their assessment is passed,
// which keeps everything after an unpassed quiz locked.
func ResolveLocks(s CourseStructure, completions CompletionSet) LockState {
	state := make(LockState, s.TotalLessons())

	prevCompleted := true
	for _, l := range s.Lessons() {
		completed := completions.IsCompleted(l.ID)
		state[l.ID] = !completed && !prevCompleted
		prevCompleted = completed
	}

	return state
}
