package memory

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v4"

	"github.com/artem13815/jobmatch/pkg/resume"
	"github.com/artem13815/jobmatch/pkg/vacancy"
)

// Fixtures is the YAML corpus used to seed local environments.
type Fixtures struct {
	Jobs     []vacancy.Job   `yaml:"jobs"`
	Profiles []resume.Record `yaml:"profiles"`
}

func LoadFixtures(path string) (Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return DecodeFixtures(f)
}

func DecodeFixtures(r io.Reader) (Fixtures, error) {
	var fx Fixtures
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil && err != io.EOF {
		return Fixtures{}, fmt.Errorf("decode fixtures: %w", err)
	}
	return fx, nil
}

// Seed imports the fixtures through the given writers and reports how many jobs and
// profiles were stored.
func Seed(ctx context.Context, fx Fixtures, jobs vacancy.Writer, profiles resume.Writer) (int, int, error) {
	nJobs, err := vacancy.NewImporter(jobs).Import(ctx, fx.Jobs)
	if err != nil {
		return nJobs, 0, fmt.Errorf("import jobs: %w", err)
	}
	nProfiles := 0
	for _, rec := range fx.Profiles {
		if rec.CandidateID == "" {
			return nJobs, nProfiles, fmt.Errorf("profile #%d: candidate_id is required", nProfiles+1)
		}
		if err := profiles.UpsertProfile(ctx, rec); err != nil {
			return nJobs, nProfiles, fmt.Errorf("import profile %s: %w", rec.CandidateID, err)
		}
		nProfiles++
	}
	return nJobs, nProfiles, nil
}
