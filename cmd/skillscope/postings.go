package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/skillscope/connector"
	"github.com/poiesic/skillscope/core"
)

const maxPostingsFileSize = 64 * 1024 * 1024

// filePosting is the JSON shape accepted by ingest-file.
type filePosting struct {
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	Description    string   `json:"description"`
	Requirements   string   `json:"requirements"`
	Skills         []string `json:"skills"`
	SalaryMin      int64    `json:"salary_min"`
	SalaryMax      int64    `json:"salary_max"`
	SalaryCurrency string   `json:"salary_currency"`
	SourceURL      string   `json:"source_url"`
	Source         string   `json:"source"`
	PostedDate     string   `json:"posted_date"`
	JobType        string   `json:"job_type"`
}

func (f *filePosting) raw() (core.RawPosting, error) {
	raw := core.RawPosting{
		Title:        f.Title,
		Employer:     f.Company,
		Location:     f.Location,
		Description:  f.Description,
		Requirements: f.Requirements,
		Skills:       f.Skills,
		SourceURL:    f.SourceURL,
		SourceName:   f.Source,
		JobType:      core.ParseJobType(f.JobType),
	}
	if raw.SourceName == "" {
		raw.SourceName = "file"
	}
	if f.SalaryMin > 0 || f.SalaryMax > 0 {
		raw.Salary = &core.SalaryRange{Min: f.SalaryMin, Max: f.SalaryMax, Currency: f.SalaryCurrency}
	}
	if f.PostedDate != "" {
		t, err := parsePostedDate(f.PostedDate)
		if err != nil {
			return raw, fmt.Errorf("posting %q: %w", f.Title, err)
		}
		raw.PostedAt = t
	}
	connector.Enrich(&raw)
	return raw, nil
}

func parsePostedDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid posted_date %q", s)
}

// readPostingsFile loads a JSON array of postings.
func readPostingsFile(path string) ([]core.RawPosting, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat postings file: %w", err)
	}
	if info.Size() > maxPostingsFileSize {
		return nil, fmt.Errorf("postings file too large: %d bytes (max %d)", info.Size(), maxPostingsFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read postings file: %w", err)
	}

	var entries []filePosting
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse postings file: %w", err)
	}
	raws := make([]core.RawPosting, 0, len(entries))
	for i := range entries {
		raw, err := entries[i].raw()
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

// samplePostings returns a small fixed market for trying the tool offline.
func samplePostings(now time.Time) []core.RawPosting {
	day := 24 * time.Hour
	raws := []core.RawPosting{
		{
			Title:        "Senior Data Engineer",
			Employer:     "Northwind Analytics",
			Location:     "Austin, TX",
			Description:  "Build and operate batch and streaming pipelines feeding our analytics platform. You will own Airflow DAGs, tune Spark jobs, and model data in Snowflake.",
			Requirements: "5+ years with Python and SQL. Experience with Spark, Airflow and Kafka. Familiarity with AWS.",
			Salary:       &core.SalaryRange{Min: 150000, Max: 185000, Currency: "USD"},
			SourceURL:    "https://jobs.example.com/northwind/data-engineer",
			PostedAt:     now.Add(-2 * day),
			JobType:      core.JobTypeFullTime,
		},
		{
			Title:        "Data Engineer",
			Employer:     "Contoso Health",
			Location:     "Remote",
			Description:  "Join a small team moving clinical data into a modern lakehouse. Fully remote within the US.",
			Requirements: "Python, SQL, dbt, and Databricks. Docker and Terraform are a plus.",
			SourceURL:    "https://jobs.example.com/contoso/data-engineer",
			PostedAt:     now.Add(-5 * day),
			JobType:      core.JobTypeFullTime,
		},
		{
			Title:        "Machine Learning Engineer",
			Employer:     "Fabrikam AI",
			Location:     "San Francisco, CA",
			Description:  "Train, evaluate and ship ranking models. Hybrid schedule with three days in office.",
			Requirements: "Strong Python, PyTorch or TensorFlow, Kubernetes, and experience serving models on GCP.",
			Salary:       &core.SalaryRange{Min: 180000, Max: 230000, Currency: "USD"},
			SourceURL:    "https://jobs.example.com/fabrikam/mle",
			PostedAt:     now.Add(-1 * day),
			JobType:      core.JobTypeFullTime,
		},
		{
			Title:        "Junior Backend Engineer",
			Employer:     "Tailspin Travel",
			Location:     "Chicago, IL",
			Description:  "Help build booking APIs in Go. On-site mentoring program for new graduates.",
			Requirements: "Go or Java, PostgreSQL, REST APIs, Git.",
			SourceURL:    "https://jobs.example.com/tailspin/backend",
			PostedAt:     now.Add(-3 * day),
			JobType:      core.JobTypeFullTime,
		},
		{
			Title:        "DevOps Engineer (Contract)",
			Employer:     "Adventure Works",
			Location:     "Remote",
			Description:  "Six month contract to migrate CI pipelines and harden our Kubernetes clusters. Work from anywhere.",
			Requirements: "Kubernetes, Terraform, AWS, GitHub Actions, Linux.",
			SourceURL:    "https://jobs.example.com/adventureworks/devops",
			PostedAt:     now.Add(-7 * day),
			JobType:      core.JobTypeContract,
		},
		{
			Title:        "Frontend Developer",
			Employer:     "Wide World Importers",
			Location:     "New York, NY",
			Description:  "Own the customer storefront built with React and TypeScript.",
			Requirements: "JavaScript, TypeScript, React, CSS, accessibility practices.",
			SourceURL:    "https://jobs.example.com/wwi/frontend",
			PostedAt:     now.Add(-4 * day),
			JobType:      core.JobTypePartTime,
		},
	}
	for i := range raws {
		raws[i].SourceName = "sample"
		connector.Enrich(&raws[i])
	}
	return raws
}
