// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/skillscope/core"
)

const analysisSystemPrompt = `You are a labor market analyst. Base every finding strictly on the job posting evidence provided. Respond with a single JSON object and nothing else.`

const comparisonSystemPrompt = `You are a career comparison analyst. Base every finding strictly on the job posting evidence provided. Respond with a single JSON object and nothing else.`

const analysisSchema = `{
  "summary": "string",
  "top_skills": [{"skill": "string", "frequency": "string", "necessity_level": "mandatory|highly_desired|nice_to_have", "explanation": "string"}],
  "emerging_trends": ["string"],
  "skill_categories": {"technical_skills": ["string"], "soft_skills": ["string"], "tools_and_platforms": ["string"], "certifications": ["string"]},
  "experience_requirements": {"entry_level": "string", "mid_level": "string", "senior_level": "string"},
  "salary_insights": {"range": "string", "factors": ["string"]},
  "geographic_trends": {"hot_locations": ["string"], "remote_opportunities": "string"},
  "recommendations": ["string"]
}`

const comparisonSchema = `{
  "role_a_name": "string",
  "role_b_name": "string",
  "unique_to_role_a": ["string"],
  "unique_to_role_b": ["string"],
  "common_skills": ["string"],
  "salary_comparison": "string",
  "career_progression": "string",
  "market_demand": "string",
  "recommendations": "string"
}`

// evidenceExcerpt bounds how much chunk text each evidence item contributes.
const evidenceExcerpt = 500

func formatEvidence(evidence []*core.Evidence) string {
	var b strings.Builder
	for i, ev := range evidence {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Job Posting %d]\nTitle: %s\nCompany: %s\nLocation: %s\nContent: %s\nRelevance Score: %.2f\n---",
			i+1,
			orNA(ev.Metadata.Title),
			orNA(ev.Metadata.Employer),
			orNA(ev.Metadata.Location),
			clipText(ev.Text, evidenceExcerpt),
			ev.Score)
	}
	return b.String()
}

func buildAnalysisPrompt(query, role string, evidence []*core.Evidence) string {
	scope := ""
	if role != "" {
		scope = " for " + role + " positions"
	}
	return fmt.Sprintf(`Analyze the following job posting data%s.

Query: %s

Job Posting Data:
%s

Return JSON matching this shape:
%s

Quantify findings where the data allows, separate mandatory from desired skills, and do not add information absent from the data.`,
		scope, query, formatEvidence(evidence), analysisSchema)
}

func buildComparisonPrompt(roleA, roleB string, evidenceA, evidenceB []*core.Evidence) string {
	return fmt.Sprintf(`Compare the skill requirements and market characteristics of two roles.

ROLE A: %s
%s

ROLE B: %s
%s

Return JSON matching this shape:
%s`,
		roleA, formatEvidence(evidenceA), roleB, formatEvidence(evidenceB), comparisonSchema)
}
