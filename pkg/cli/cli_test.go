package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/jobmatch/pkg/security/jwt"
)

const sampleFixtures = "../../fixtures/sample.yaml"

func setEnv(t *testing.T, driver string) {
	t.Helper()
	for k, v := range map[string]string{
		"STORAGE_DRIVER": driver,
		"FEED":           "memory",
		"JWT_SECRET":     "test-secret",
		"JWT_ISSUER":     "jobmatch",
		"DATABASE_URL":   "",
		"REDIS_ADDR":     "",
		"FIXTURES_PATH":  "",
		"SQLITE_PATH":    filepath.Join(t.TempDir(), "jobmatch.db"),
		"MATCH_LIMIT":    "",
		"JOBS_PAGE_SIZE": "",
		"DEBUG":          "",
		"JSON":           "",
	} {
		t.Setenv(k, v)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "jobmatch version: unknown\n", out)
}

func TestToken(t *testing.T) {
	setEnv(t, "memory")
	out, err := run(t, "token", "cand-1", "--admin")
	require.NoError(t, err)

	claims := &jwt.Claims{}
	tok, err := gojwt.ParseWithClaims(strings.TrimSpace(out), claims, func(*gojwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, tok.Valid)
	assert.Equal(t, "cand-1", claims.Subject)
	assert.Equal(t, "jobmatch", claims.Issuer)
	assert.True(t, claims.IsAdmin)
}

func TestMatchMemoryFixtures(t *testing.T) {
	setEnv(t, "memory")
	t.Setenv("FIXTURES_PATH", sampleFixtures)

	out, err := run(t, "match", "cand-1", "-o", "json")
	require.NoError(t, err)
	var res struct {
		Results []struct {
			JobID string `json:"job_id"`
		} `json:"results"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 4, res.Total)
	require.NotEmpty(t, res.Results)
	assert.Equal(t, "go-backend-berlin", res.Results[0].JobID)

	out, err = run(t, "match", "cand-1", "--work-mode", "remote")
	require.NoError(t, err)
	assert.Contains(t, out, "platform-remote")
	assert.NotContains(t, out, "go-backend-berlin")
	assert.Contains(t, out, "1 shown, 4 ranked")
}

func TestMatchFlagsValidation(t *testing.T) {
	setEnv(t, "memory")
	_, err := run(t, "match", "cand-1", "-o", "xml")
	assert.Error(t, err)

	_, err = run(t, "match")
	assert.Error(t, err)

	_, err = run(t, "match", "cand-1", "--min-score", "120")
	assert.Error(t, err)
}

func TestSeedAndMatchSQLite(t *testing.T) {
	setEnv(t, "sqlite")

	_, err := run(t, "migrate")
	require.NoError(t, err)
	_, err = os.Stat(os.Getenv("SQLITE_PATH"))
	require.NoError(t, err)

	out, err := run(t, "seed", sampleFixtures)
	require.NoError(t, err)
	assert.Equal(t, "seeded 4 jobs and 2 profiles\n", out)

	out, err = run(t, "match", "cand-2", "--save", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "java-munich")
}

func TestMemoryDriverRejectsPersistence(t *testing.T) {
	setEnv(t, "memory")
	_, err := run(t, "migrate")
	assert.ErrorIs(t, err, errMemoryDriver)
	_, err = run(t, "seed", sampleFixtures)
	assert.ErrorIs(t, err, errMemoryDriver)
}

func TestBadConfig(t *testing.T) {
	setEnv(t, "cassandra")
	_, err := run(t, "match", "cand-1")
	assert.Error(t, err)
}
