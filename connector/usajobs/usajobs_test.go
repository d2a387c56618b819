package usajobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/skillscope/connector"
	"github.com/poiesic/skillscope/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const results = `{
  "SearchResult": {
    "SearchResultItems": [
      {
        "MatchedObjectDescriptor": {
          "PositionTitle": "IT Specialist (Data Management)",
          "OrganizationName": "Department of Energy",
          "PositionLocationDisplay": "Washington, DC",
          "PositionURI": "https://www.usajobs.gov/job/1",
          "QualificationSummary": "Experience with SQL and Python.",
          "PublicationStartDate": "2025-04-15T00:00:00.0000",
          "PositionSchedule": [{"Name": "Full-time"}],
          "PositionRemuneration": [{"MinimumRange": "99000.0", "MaximumRange": "128000.0", "RateIntervalCode": "PA"}],
          "UserArea": {"Details": {"JobSummary": "<p>Manage agency data platforms.</p>"}}
        }
      }
    ]
  }
}`

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{Email: "me@example.com"})
	assert.ErrorIs(t, err, connector.ErrMissingCredentials)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/Search", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Authorization-Key"))
		assert.Equal(t, "me@example.com", r.Header.Get("User-Agent"))
		assert.Equal(t, "data", r.URL.Query().Get("Keyword"))
		assert.Equal(t, "Denver", r.URL.Query().Get("LocationName"))
		w.Write([]byte(results))
	}))
	defer srv.Close()

	f, err := New(Config{Email: "me@example.com", APIKey: "secret", BaseURL: srv.URL})
	require.NoError(t, err)

	raws, err := f.Fetch(context.Background(), "data", "Denver")
	require.NoError(t, err)
	require.Len(t, raws, 1)

	r := raws[0]
	assert.Equal(t, "IT Specialist (Data Management)", r.Title)
	assert.Equal(t, "Department of Energy", r.Employer)
	assert.Equal(t, "Manage agency data platforms.", r.Description)
	assert.Equal(t, "Experience with SQL and Python.", r.Requirements)
	assert.Equal(t, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), r.PostedAt)
	assert.Equal(t, core.JobTypeFullTime, r.JobType)
	require.NotNil(t, r.Salary)
	assert.Equal(t, "$99000 - $128000 PA", r.Salary.Text)
	assert.Equal(t, []string{"Python", "SQL"}, r.Skills)
}
