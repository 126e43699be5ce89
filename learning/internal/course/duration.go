package course

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	clockLabel   = regexp.MustCompile(`^(\d+):([0-5]\d)(?::([0-5]\d))?$`)
	minutesLabel = regexp.MustCompile(`^(\d+)\s*min$`)
	hoursLabel   = regexp.MustCompile(`^(\d+)\s*h(?:\s*([0-5]\d))?$`)
)

// ParseDurationLabel turns the human label shown next to a lesson into a
// duration. Recognized forms are "m:ss", "h:mm:ss", "N min", "Nh" and "NhMM".
// Labels that carry no time, such as a reading marker, report false.
func ParseDurationLabel(label string) (time.Duration, bool) {
	label = strings.ToLower(strings.TrimSpace(label))

	if m := clockLabel.FindStringSubmatch(label); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])

		if m[3] == "" {
			return time.Duration(a)*time.Minute + time.Duration(b)*time.Second, true
		}

		c, _ := strconv.Atoi(m[3])

		return time.Duration(a)*time.Hour + time.Duration(b)*time.Minute + time.Duration(c)*time.Second, true
	}

	if m := minutesLabel.FindStringSubmatch(label); m != nil {
		n, _ := strconv.Atoi(m[1])
		return time.Duration(n) * time.Minute, true
	}

	if m := hoursLabel.FindStringSubmatch(label); m != nil {
		h, _ := strconv.Atoi(m[1])
		d := time.Duration(h) * time.Hour

		if m[2] != "" {
			mm, _ := strconv.Atoi(m[2])
			d += time.Duration(mm) * time.Minute
		}

		return d, true
	}

	return 0, false
}

// StudyTime sums the parsed durations of the completed lessons in s.
func StudyTime(s CourseStructure, completions CompletionSet) time.Duration {
	var total time.Duration
	for _, l := range s.Lessons() {
		if !completions.IsCompleted(l.ID) {
			continue
		}

		if d, ok := ParseDurationLabel(l.DurationLabel); ok {
			total += d
		}
	}

	return total
}
