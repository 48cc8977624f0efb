package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

var resultEpoch = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func createPersistence(t *testing.T) Persistence {
	p := NewPersistence(filepath.Join(t.TempDir(), "db", "brewgpio.db"))
	require.NoError(t, p.Init())
	return p
}

func createResult(stepId string, transferred float64) StepResult {
	return StepResult{
		StepId:      stepId,
		Type:        "volume",
		Start:       resultEpoch,
		End:         resultEpoch.Add(5 * time.Minute),
		Status:      StepStatusDone,
		Target:      20,
		Transferred: transferred,
		Unit:        "L",
	}
}

func TestPersistence_Init_CreatesDirectory(t *testing.T) {
	// GIVEN
	dir := filepath.Join(t.TempDir(), "nested", "db")
	p := NewPersistence(filepath.Join(dir, "brewgpio.db"))

	// WHEN
	err := p.Init()

	// THEN
	assert.NoError(t, err)
	info, err := os.Stat(dir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPersistence_SaveAndLoadStepResults(t *testing.T) {
	// GIVEN
	p := createPersistence(t)
	first := createResult("transfer", 19.8)
	second := createResult("transfer", 20.1)

	// WHEN
	require.NoError(t, p.SaveStepResult(first))
	require.NoError(t, p.SaveStepResult(second))
	results, err := p.LoadStepResults("transfer")

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []StepResult{first, second}, results)
}

func TestPersistence_LoadStepResults_Missing(t *testing.T) {
	// GIVEN
	p := createPersistence(t)
	require.NoError(t, p.SaveStepResult(createResult("transfer", 20)))

	// WHEN
	results, err := p.LoadStepResults("chill")

	// THEN
	assert.Nil(t, results)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPersistence_DeleteStepResults(t *testing.T) {
	// GIVEN
	p := createPersistence(t)
	require.NoError(t, p.SaveStepResult(createResult("transfer", 20)))

	// WHEN
	err := p.DeleteStepResults("transfer")

	// THEN
	assert.NoError(t, err)
	results, err := p.LoadStepResults("transfer")
	assert.Nil(t, results)
	assert.Error(t, err)
	assert.NoError(t, p.DeleteStepResults("transfer"))
}

func TestPersistence_SaveStepResult_KeepsLatest(t *testing.T) {
	// GIVEN
	p := createPersistence(t)

	// WHEN
	for i := 0; i < MaxStepResults+5; i++ {
		require.NoError(t, p.SaveStepResult(createResult("transfer", float64(i))))
	}

	// THEN
	results, err := p.LoadStepResults("transfer")
	assert.NoError(t, err)
	assert.Len(t, results, MaxStepResults)
	assert.Equal(t, 5.0, results[0].Transferred)
	assert.Equal(t, float64(MaxStepResults+4), results[len(results)-1].Transferred)
}

func TestPersistence_LoadStepResults_CorruptDataIsDeleted(t *testing.T) {
	// GIVEN
	dbPath := filepath.Join(t.TempDir(), "brewgpio.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketSteps))
		if err != nil {
			return err
		}
		return b.Put([]byte("transfer"), []byte("{broken"))
	}))
	require.NoError(t, db.Close())
	p := NewPersistence(dbPath)

	// WHEN
	results, err := p.LoadStepResults("transfer")

	// THEN
	assert.Nil(t, results)
	assert.ErrorIs(t, err, os.ErrNotExist)
	db, err = bolt.Open(dbPath, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.View(func(tx *bolt.Tx) error {
		assert.Nil(t, tx.Bucket([]byte(BucketSteps)).Get([]byte("transfer")))
		return nil
	}))
	require.NoError(t, db.Close())
	require.NoError(t, p.SaveStepResult(createResult("transfer", 20)))
	results, err = p.LoadStepResults("transfer")
	assert.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestPersistence_SaveStepResult_RequiresStepId(t *testing.T) {
	// GIVEN
	p := createPersistence(t)

	// WHEN
	err := p.SaveStepResult(StepResult{})

	// THEN
	assert.EqualError(t, err, "step result without step id")
}
