package core

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// AnalysisKey identifies a memoized analysis. Matching is exact on all three fields;
// empty Role or Location means "no filter".
type AnalysisKey struct {
	Query    string
	Role     string
	Location string
}

// Digest returns a fixed-width hex digest of the key, usable as an index component.
func (k AnalysisKey) Digest() string {
	h, _ := blake2b.New(16, nil)
	for _, part := range []string{k.Query, k.Role, k.Location} {
		h.Write([]byte(strconv.Itoa(len(part))))
		h.Write([]byte{':'})
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LooseString accepts a JSON string, number or boolean and keeps its text.
// Synthesizers are inconsistent about quoting values such as frequencies.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(v)
		return nil
	}
	*s = LooseString(data)
	return nil
}

// SkillInsight is one entry in the ranked skill list of an analysis.
type SkillInsight struct {
	Skill          string      `json:"skill"`
	Frequency      LooseString `json:"frequency,omitempty"`
	NecessityLevel string      `json:"necessity_level,omitempty"`
	Explanation    string      `json:"explanation,omitempty"`
}

// SalaryInsights summarizes compensation signals found in the evidence.
type SalaryInsights struct {
	Range   LooseString `json:"range,omitempty"`
	Factors []string    `json:"factors,omitempty"`
}

// GeographicTrends summarizes location signals found in the evidence.
type GeographicTrends struct {
	HotLocations        []string    `json:"hot_locations,omitempty"`
	RemoteOpportunities LooseString `json:"remote_opportunities,omitempty"`
}

// Citation points from an analysis back to a posting that supported it.
type Citation struct {
	PostingId      ID      `json:"job_id"`
	Title          string  `json:"title"`
	Employer       string  `json:"company"`
	SourceURL      string  `json:"source_url,omitempty"`
	RelevanceScore float32 `json:"relevance_score"`
}

// PostingSummary is the abbreviated posting attached to analysis results.
type PostingSummary struct {
	Id        ID        `json:"id"`
	Title     string    `json:"title"`
	Employer  string    `json:"company"`
	Location  string    `json:"location,omitempty"`
	SourceURL string    `json:"source_url,omitempty"`
	Skills    []string  `json:"skills,omitempty"`
	PostedAt  time.Time `json:"posted_date,omitzero"`
}

// Summarize returns the abbreviated form of a posting.
func (p *Posting) Summarize() PostingSummary {
	return PostingSummary{
		Id:        p.Id,
		Title:     p.Title,
		Employer:  p.Employer,
		Location:  p.Location,
		SourceURL: p.SourceURL,
		Skills:    p.Skills,
		PostedAt:  p.PostedAt,
	}
}

// AnalysisResult is the structured payload produced by synthesis over retrieved evidence.
type AnalysisResult struct {
	Summary                string                 `json:"summary"`
	TopSkills              []SkillInsight         `json:"top_skills"`
	EmergingTrends         []string               `json:"emerging_trends,omitempty"`
	SkillCategories        map[string][]string    `json:"skill_categories,omitempty"`
	ExperienceRequirements map[string]LooseString `json:"experience_requirements,omitempty"`
	SalaryInsights         *SalaryInsights        `json:"salary_insights,omitempty"`
	GeographicTrends       *GeographicTrends      `json:"geographic_trends,omitempty"`
	Recommendations        []string               `json:"recommendations,omitempty"`

	Citations             []Citation       `json:"citations,omitempty"`
	TotalPostingsAnalyzed int              `json:"total_jobs_analyzed"`
	PostingsSample        []PostingSummary `json:"job_postings_sample,omitempty"`
	Query                 string           `json:"query"`
	GeneratedAt           time.Time        `json:"generated_at"`
	FromCache             bool             `json:"from_cache"`
}

// CachedAnalysis is an append-only memo row. Rows are never mutated; newer rows
// for the same key supersede older ones.
type CachedAnalysis struct {
	Id           ID
	Key          AnalysisKey
	Result       AnalysisResult
	PostingCount int
	PostingIds   []ID
	CreatedAt    time.Time
}

// NoResults is returned instead of a result when retrieval finds no evidence.
type NoResults struct {
	Error       string   `json:"error"`
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

// AnalysisResponse carries exactly one of Result or NoResults.
type AnalysisResponse struct {
	Result    *AnalysisResult `json:"result,omitempty"`
	NoResults *NoResults      `json:"no_results,omitempty"`
}

// ComparisonResult contrasts the skill demands of two roles.
type ComparisonResult struct {
	RoleA             string      `json:"role_a_name"`
	RoleB             string      `json:"role_b_name"`
	UniqueToA         []string    `json:"unique_to_role_a"`
	UniqueToB         []string    `json:"unique_to_role_b"`
	CommonSkills      []string    `json:"common_skills"`
	SalaryComparison  LooseString `json:"salary_comparison,omitempty"`
	CareerProgression LooseString `json:"career_progression,omitempty"`
	MarketDemand      LooseString `json:"market_demand,omitempty"`
	Recommendations   LooseString `json:"recommendations,omitempty"`
	EvidenceA         int         `json:"evidence_role_a"`
	EvidenceB         int         `json:"evidence_role_b"`
	GeneratedAt       time.Time   `json:"generated_at"`
}

// TrendingSkill is one aggregated skill mention count.
type TrendingSkill struct {
	Skill        string  `json:"skill"`
	MentionCount int     `json:"mention_count"`
	TrendScore   float64 `json:"trend_score"`
}

// TrendingReport aggregates skills across recent cached analyses.
type TrendingReport struct {
	Skills                []TrendingSkill `json:"trending_skills"`
	WindowDays            int             `json:"time_period_days"`
	TotalAnalyses         int             `json:"total_analyses"`
	TotalPostingsAnalyzed int             `json:"total_jobs_analyzed"`
	GeneratedAt           time.Time       `json:"generated_at"`
}
