package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/skillscope/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	raws []core.RawPosting
	err  error

	gotTerms    []string
	gotLocation string
	gotMax      int
}

func (f *fakeSource) FetchAll(_ context.Context, terms []string, location string, maxPerSource int) ([]core.RawPosting, error) {
	f.gotTerms = terms
	f.gotLocation = location
	f.gotMax = maxPerSource
	return f.raws, f.err
}

func TestNewService(t *testing.T) {
	p := newTestPipeline(t, newTestStore(t))

	_, err := NewService(nil, p, nil)
	assert.Equal(t, ErrSourceRequired, err)

	_, err = NewService(&fakeSource{}, nil, nil)
	assert.Equal(t, ErrPipelineRequired, err)

	svc, err := NewService(&fakeSource{}, p, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestService_Ingest(t *testing.T) {
	ctx := context.Background()
	fetchErr := errors.New("adzuna: 500")

	tests := []struct {
		name    string
		source  *fakeSource
		wantNew int
		wantErr error
	}{
		{
			name:    "fetched postings are ingested",
			source:  &fakeSource{raws: []core.RawPosting{rawPosting("Go Dev", "Acme", "Go."), rawPosting("Rust Dev", "Acme", "Rust.")}},
			wantNew: 2,
		},
		{
			name:    "partial source failure still ingests",
			source:  &fakeSource{raws: []core.RawPosting{rawPosting("Go Dev", "Acme", "Go.")}, err: fetchErr},
			wantNew: 1,
		},
		{
			name:    "total failure",
			source:  &fakeSource{err: fetchErr},
			wantErr: fetchErr,
		},
		{
			name:   "nothing fetched",
			source: &fakeSource{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.source, newTestPipeline(t, newTestStore(t)), nil)
			require.NoError(t, err)

			stats, err := svc.Ingest(ctx, []string{"go developer"}, "Berlin", 7)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 1, stats.Errors)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNew, stats.New)
			assert.Equal(t, []string{"go developer"}, tt.source.gotTerms)
			assert.Equal(t, "Berlin", tt.source.gotLocation)
			assert.Equal(t, 7, tt.source.gotMax)
		})
	}
}
