// Package analysis answers market questions over ingested postings.
//
// An Analyzer composes the retriever, a synthesizer and the analysis cache:
//
//	a, err := analysis.NewAnalyzer(retriever, synthesizer, memo)
//	resp, err := a.Analyze(ctx, analysis.AnalyzeRequest{Query: "data engineer", UseCache: true, MaxAge: 24 * time.Hour})
//	if resp.NoResults != nil {
//		// nothing matched; resp.NoResults.Suggestions has hints
//	}
//
// Compare contrasts two roles and TrendingSkills aggregates recent cached
// analyses. The cache is optional and its failures never fail a request.
package analysis
