package core

import (
	"slices"
	"testing"
)

func TestInferExperienceLevel(t *testing.T) {
	tests := []struct {
		title string
		want  ExperienceLevel
	}{
		{"Senior ML Engineer", ExperienceSenior},
		{"Sr. Backend Developer", ExperienceSenior},
		{"Staff Engineer", ExperienceSenior},
		{"Engineering Director", ExperienceSenior},
		{"Junior Data Analyst", ExperienceEntry},
		{"Graduate Software Engineer", ExperienceEntry},
		{"Data Science Intern", ExperienceEntry},
		{"Data Scientist", ExperienceMid},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := InferExperienceLevel(tt.title); got != tt.want {
				t.Errorf("InferExperienceLevel(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestInferRemoteMode(t *testing.T) {
	tests := []struct {
		text string
		want RemoteMode
	}{
		{"Fully remote, anywhere", RemoteFull},
		{"Work from home friendly", RemoteFull},
		{"Remote or hybrid in London", RemoteHybrid},
		{"Hybrid, 3 days in office", RemoteHybrid},
		{"Berlin office", RemoteOnSite},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := InferRemoteMode(tt.text); got != tt.want {
				t.Errorf("InferRemoteMode(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseJobType(t *testing.T) {
	tests := []struct {
		label string
		want  JobType
	}{
		{"Full-time", JobTypeFullTime},
		{"permanent", JobTypeFullTime},
		{"Part time", JobTypePartTime},
		{"contract", JobTypeContract},
		{"Internship", JobTypeInternship},
		{"", JobTypeUnknown},
		{"gig", JobTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := ParseJobType(tt.label); got != tt.want {
				t.Errorf("ParseJobType(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestEnumStrings(t *testing.T) {
	if JobType(99).String() != "unknown" {
		t.Errorf("out of range JobType = %q", JobType(99).String())
	}
	if ExperienceSenior.String() != "senior" {
		t.Errorf("ExperienceSenior = %q", ExperienceSenior.String())
	}
	if RemoteFull.String() != "remote" {
		t.Errorf("RemoteFull = %q", RemoteFull.String())
	}
}

func TestUnionSkills(t *testing.T) {
	got := UnionSkills([]string{"Python", "PyTorch"}, []string{"Python", " AWS ", ""})
	want := []string{"AWS", "PyTorch", "Python"}
	if !slices.Equal(got, want) {
		t.Errorf("UnionSkills() = %v, want %v", got, want)
	}
}
