package core

import (
	"slices"
	"strings"
)

// JobType classifies the employment arrangement of a posting.
type JobType int

const (
	JobTypeUnknown JobType = iota
	JobTypeFullTime
	JobTypePartTime
	JobTypeContract
	JobTypeTemporary
	JobTypeInternship
)

var jobTypeNames = map[JobType]string{
	JobTypeUnknown:    "unknown",
	JobTypeFullTime:   "full-time",
	JobTypePartTime:   "part-time",
	JobTypeContract:   "contract",
	JobTypeTemporary:  "temporary",
	JobTypeInternship: "internship",
}

func (t JobType) String() string {
	if name, ok := jobTypeNames[t]; ok {
		return name
	}
	return jobTypeNames[JobTypeUnknown]
}

// ParseJobType maps free-form source labels ("Full-time", "permanent", "contract")
// onto a JobType. Unrecognized labels map to JobTypeUnknown.
func ParseJobType(label string) JobType {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case l == "":
		return JobTypeUnknown
	case strings.Contains(l, "intern"):
		return JobTypeInternship
	case strings.Contains(l, "part"):
		return JobTypePartTime
	case strings.Contains(l, "contract"), strings.Contains(l, "freelance"):
		return JobTypeContract
	case strings.Contains(l, "temp"), strings.Contains(l, "seasonal"):
		return JobTypeTemporary
	case strings.Contains(l, "full"), strings.Contains(l, "permanent"):
		return JobTypeFullTime
	}
	return JobTypeUnknown
}

// ExperienceLevel is the seniority a posting targets.
type ExperienceLevel int

const (
	ExperienceUnknown ExperienceLevel = iota
	ExperienceEntry
	ExperienceMid
	ExperienceSenior
)

var experienceNames = map[ExperienceLevel]string{
	ExperienceUnknown: "unknown",
	ExperienceEntry:   "entry",
	ExperienceMid:     "mid",
	ExperienceSenior:  "senior",
}

func (e ExperienceLevel) String() string {
	if name, ok := experienceNames[e]; ok {
		return name
	}
	return experienceNames[ExperienceUnknown]
}

var (
	seniorMarkers = []string{"senior", "sr.", "sr ", "lead", "principal", "staff", "director", "head of"}
	entryMarkers  = []string{"junior", "jr.", "jr ", "entry", "graduate", "intern", "trainee"}
)

// InferExperienceLevel guesses the seniority from a job title.
// Titles without a seniority marker are treated as mid level.
func InferExperienceLevel(title string) ExperienceLevel {
	t := strings.ToLower(title) + " "
	if containsAny(t, seniorMarkers) {
		return ExperienceSenior
	}
	if containsAny(t, entryMarkers) {
		return ExperienceEntry
	}
	return ExperienceMid
}

// RemoteMode describes where the work is performed.
type RemoteMode int

const (
	RemoteUnknown RemoteMode = iota
	RemoteOnSite
	RemoteHybrid
	RemoteFull
)

var remoteNames = map[RemoteMode]string{
	RemoteUnknown: "unknown",
	RemoteOnSite:  "on-site",
	RemoteHybrid:  "hybrid",
	RemoteFull:    "remote",
}

func (r RemoteMode) String() string {
	if name, ok := remoteNames[r]; ok {
		return name
	}
	return remoteNames[RemoteUnknown]
}

// InferRemoteMode guesses the remote arrangement from posting text.
func InferRemoteMode(text string) RemoteMode {
	t := strings.ToLower(text)
	if strings.Contains(t, "remote") || strings.Contains(t, "work from home") {
		if strings.Contains(t, "hybrid") {
			return RemoteHybrid
		}
		return RemoteFull
	}
	if strings.Contains(t, "hybrid") {
		return RemoteHybrid
	}
	return RemoteOnSite
}

// NormalizeSkills trims, drops empties and duplicates, and sorts a skill list.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// UnionSkills returns the normalized union of two skill sets.
func UnionSkills(a, b []string) []string {
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return NormalizeSkills(merged)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
