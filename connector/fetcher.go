package connector

import (
	"context"
	"strings"

	"github.com/poiesic/skillscope/core"
)

// Fetcher retrieves raw postings from one job board.
type Fetcher interface {
	// Name identifies the source; it is also the posting SourceName.
	Name() string

	// Fetch returns postings matching term near location. Location may be empty.
	Fetch(ctx context.Context, term, location string) ([]core.RawPosting, error)
}

// Enrich fills heuristically inferable fields the board did not provide:
// skills from the title and description, seniority from the title, and the
// remote arrangement from the description.
func Enrich(raw *core.RawPosting) {
	if len(raw.Skills) == 0 {
		raw.Skills = core.ExtractSkills(raw.Title + " " + raw.Description + " " + raw.Requirements)
	}
	if raw.ExperienceLevel == core.ExperienceUnknown {
		raw.ExperienceLevel = core.InferExperienceLevel(raw.Title)
	}
	if raw.RemoteMode == core.RemoteUnknown {
		raw.RemoteMode = core.InferRemoteMode(raw.Location + " " + raw.Description)
	}
}

// MatchesTerm reports whether every word of term occurs in one of fields,
// ignoring case. An empty term matches everything.
func MatchesTerm(term string, fields ...string) bool {
	words := strings.Fields(strings.ToLower(term))
	if len(words) == 0 {
		return true
	}
	haystack := strings.ToLower(strings.Join(fields, " "))
	for _, w := range words {
		if !strings.Contains(haystack, w) {
			return false
		}
	}
	return true
}
