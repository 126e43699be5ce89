package course

import (
	"math"
	"time"
)

type ModuleProgress struct {
	ModuleID    string `json:"module_id"`
	Completed   int    `json:"completed"`
	Total       int    `json:"total"`
	IsCompleted bool   `json:"is_completed"`
}

// Progress is a projection of the completion set over a structure. It is
// never stored.
type Progress struct {
	CourseID         string           `json:"course_id"`
	CompletedLessons int              `json:"completed_lessons"`
	TotalLessons     int              `json:"total_lessons"`
	Modules          []ModuleProgress `json:"modules"`
}

// Ratio is the exact completed fraction in [0, 1]. A course without lessons
// has ratio 0.
func (p Progress) Ratio() float64 {
	if p.TotalLessons == 0 {
		return 0
	}

	return float64(p.CompletedLessons) / float64(p.TotalLessons)
}

// Percent is Ratio scaled to 0..100 and rounded for display.
func (p Progress) Percent() int {
	return int(math.Round(p.Ratio() * 100))
}

func (p Progress) IsCompleted() bool {
	return p.TotalLessons > 0 && p.CompletedLessons == p.TotalLessons
}

// ComputeProgress derives module and course progress. A module with no
// lessons counts as completed.
func ComputeProgress(s CourseStructure, completions CompletionSet) Progress {
	p := Progress{
		CourseID: s.CourseID,
		Modules:  make([]ModuleProgress, 0, len(s.Modules)),
	}

	for _, m := range s.Modules {
		mp := ModuleProgress{ModuleID: m.ID, Total: len(m.Lessons)}
		for _, l := range m.Lessons {
			if completions.IsCompleted(l.ID) {
				mp.Completed++
			}
		}
		mp.IsCompleted = mp.Completed == mp.Total

		p.CompletedLessons += mp.Completed
		p.TotalLessons += mp.Total
		p.Modules = append(p.Modules, mp)
	}

	return p
}

// Report bundles what a learner summary needs from one enrollment.
type Report struct {
	Enrollment Enrollment    `json:"enrollment"`
	Progress   Progress      `json:"progress"`
	StudyTime  time.Duration `json:"study_time"`
}

type Summary struct {
	CompletedCourses  int           `json:"completed_courses"`
	InProgressCourses int           `json:"in_progress_courses"`
	AverageProgress   float64       `json:"average_progress"`
	StudyTime         time.Duration `json:"study_time"`
}

// Summarize aggregates the reports of every course a learner is enrolled in.
// A course is in progress when it has at least one completed lesson and is not
// completed.
func Summarize(reports ...Report) Summary {
	var (
		out   Summary
		ratio float64
	)

	for _, r := range reports {
		switch {
		case r.Enrollment.IsCompleted():
			out.CompletedCourses++
		case r.Progress.CompletedLessons > 0:
			out.InProgressCourses++
		}

		ratio += r.Progress.Ratio()
		out.StudyTime += r.StudyTime
	}

	if len(reports) > 0 {
		out.AverageProgress = ratio / float64(len(reports)) * 100
	}

	return out
}
