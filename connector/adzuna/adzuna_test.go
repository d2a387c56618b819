package adzuna

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

const page = `{
  "count": 2,
  "results": [
    {
      "title": "<strong>Data</strong> Engineer",
      "description": "Hybrid role. Python, Spark and Airflow.",
      "company": {"display_name": "Initech"},
      "location": {"display_name": "London, UK"},
      "redirect_url": "https://adzuna.example/1",
      "created": "2025-05-01T10:00:00Z",
      "salary_min": 55000.0,
      "salary_max": 72500.5,
      "contract_type": "permanent",
      "contract_time": "full_time"
    },
    {
      "title": "Junior Analyst",
      "description": "SQL reporting",
      "company": {},
      "contract_type": "contract"
    }
  ]
}`

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{AppID: "id"})
	assert.ErrorIs(t, err, connector.ErrMissingCredentials)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/jobs/gb/search/1", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "id", q.Get("app_id"))
		assert.Equal(t, "key", q.Get("app_key"))
		assert.Equal(t, "data engineer", q.Get("what"))
		assert.Equal(t, "London", q.Get("where"))
		assert.Equal(t, "date", q.Get("sort_by"))
		w.Write([]byte(page))
	}))
	defer srv.Close()

	f, err := New(Config{AppID: "id", AppKey: "key", Country: "gb", BaseURL: srv.URL})
	require.NoError(t, err)

	raws, err := f.Fetch(context.Background(), "data engineer", "London")
	require.NoError(t, err)
	require.Len(t, raws, 2)

	r := raws[0]
	assert.Equal(t, "Data Engineer", r.Title)
	assert.Equal(t, "Initech", r.Employer)
	assert.Equal(t, "London, UK", r.Location)
	assert.Equal(t, "https://adzuna.example/1", r.SourceURL)
	assert.Equal(t, Name, r.SourceName)
	assert.Equal(t, time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC), r.PostedAt)
	require.NotNil(t, r.Salary)
	assert.Equal(t, int64(55000), r.Salary.Min)
	assert.Equal(t, int64(72500), r.Salary.Max)
	assert.Equal(t, "55,000 - 72,500", r.Salary.Text)
	assert.Equal(t, core.JobTypeFullTime, r.JobType)
	assert.Equal(t, core.RemoteHybrid, r.RemoteMode)
	assert.Equal(t, []string{"Airflow", "Python", "Spark"}, r.Skills)

	assert.Equal(t, "Unknown", raws[1].Employer)
	assert.Equal(t, core.JobTypeContract, raws[1].JobType)
	assert.Equal(t, core.ExperienceEntry, raws[1].ExperienceLevel)
	assert.True(t, raws[1].PostedAt.IsZero())
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "950", thousands(950))
	assert.Equal(t, "1,000", thousands(1000))
	assert.Equal(t, "1,234,567", thousands(1234567))
}
