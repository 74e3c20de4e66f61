package scenarios

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrisk/fairsim/internal/database"
	"github.com/quantrisk/fairsim/internal/modules/fair"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "scenarios.db"),
		Profile: database.ProfileStandard,
		Name:    "scenarios-test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewRepository(db.Conn())
	require.NoError(t, repo.Migrate())
	return repo
}

func sampleInputs() fair.ScenarioInputs {
	return fair.ScenarioInputs{
		TEF: fair.TEFInput{
			Estimate: fair.Estimate{P10: 2, P50: 5, P90: 12},
			Model:    fair.TEFPoisson,
		},
		Susceptibility: fair.Estimate{P10: 10, P50: 30, P90: 60},
		Productivity: fair.LossEstimate{
			Estimate: fair.Estimate{P10: 50000, P50: 200000, P90: 800000},
		},
		Response: fair.LossEstimate{
			Estimate: fair.Estimate{P10: 25000, P50: 100000, P90: 400000},
		},
		TimeHorizonYears: 1,
		Currency:         "USD",
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := testRepo(t)

	created, err := repo.Create("Ransomware", "Crypto-locker against file servers", sampleInputs())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ransomware", created.Name)

	got, err := repo.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Ransomware", got.Name)
	assert.Equal(t, "Crypto-locker against file servers", got.Description)
	assert.Equal(t, sampleInputs(), got.Inputs)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRepositoryGetNotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Get("no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryList(t *testing.T) {
	repo := testRepo(t)

	first, err := repo.Create("First", "", sampleInputs())
	require.NoError(t, err)
	second, err := repo.Create("Second", "", sampleInputs())
	require.NoError(t, err)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)

	ids := []string{list[0].ID, list[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestRepositoryUpdate(t *testing.T) {
	repo := testRepo(t)

	created, err := repo.Create("Before", "old", sampleInputs())
	require.NoError(t, err)

	inputs := sampleInputs()
	inputs.TEF.P50 = 8

	updated, err := repo.Update(created.ID, "After", "new", inputs)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, "new", updated.Description)
	assert.Equal(t, 8.0, updated.Inputs.TEF.P50)
}

func TestRepositoryUpdateNotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Update("no-such-id", "Name", "", sampleInputs())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryDelete(t *testing.T) {
	repo := testRepo(t)

	created, err := repo.Create("Doomed", "", sampleInputs())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(created.ID))

	_, err = repo.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(created.ID), ErrNotFound)
}
