package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brewgpio/brewgpio/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketSteps = "steps"

	// number of results kept per step
	MaxStepResults = 100
)

type StepStatus string

const (
	StepStatusDone      StepStatus = "done"
	StepStatusCancelled StepStatus = "cancelled"
	StepStatusFailed    StepStatus = "failed"
)

// StepResult records a single execution of a step
type StepResult struct {
	StepId string     `json:"stepId"`
	Type   string     `json:"type"`
	Start  time.Time  `json:"start"`
	End    time.Time  `json:"end"`
	Status StepStatus `json:"status"`
	// Target value of the step, e.g. a volume or temperature
	Target float64 `json:"target"`
	// Volume moved during the step
	Transferred float64 `json:"transferred"`
	Unit        string  `json:"unit"`
	Message     string  `json:"message,omitempty"`
}

type Persistence interface {
	Init() error

	// LoadStepResults returns all recorded results of the given step, oldest first
	LoadStepResults(stepId string) ([]StepResult, error)
	// SaveStepResult appends a result to the history of its step
	SaveStepResult(result StepResult) (err error)
	DeleteStepResults(stepId string) (err error)
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	// get parent path of dbPath
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		// create directory
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SaveStepResult appends the given result to the history of its step,
// dropping the oldest entries beyond MaxStepResults
func (p persistence) SaveStepResult(result StepResult) (err error) {
	if len(result.StepId) <= 0 {
		return fmt.Errorf("step result without step id")
	}

	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	key := []byte(result.StepId)

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketSteps))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}

		var results []StepResult
		if v := b.Get(key); v != nil {
			if err := json.Unmarshal(v, &results); err != nil {
				// start over, the existing history cannot be read anyway
				ui.Warning("Unable to unmarshal saved step results for %s: %v", result.StepId, err)
				results = nil
			}
		}

		results = append(results, result)
		if len(results) > MaxStepResults {
			results = results[len(results)-MaxStepResults:]
		}

		data, err := json.Marshal(results)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// LoadStepResults loads the history of the given step from persistence
func (p persistence) LoadStepResults(stepId string) ([]StepResult, error) {
	db, err := p.openPersistence()
	if err != nil {
		return nil, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	key := []byte(stepId)

	var results []StepResult
	corrupt := false
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketSteps))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get(key)
		if v == nil {
			return os.ErrNotExist
		}

		err := json.Unmarshal(v, &results)
		if err != nil {
			// if we cannot read the saved data, delete it
			ui.Warning("Unable to unmarshal saved step results for %s: %v", stepId, err)
			err := b.Delete(key)
			if err != nil {
				ui.Error("Unable to delete corrupt data key %s: %v", stepId, err)
			}
			results = nil
			corrupt = true
		}

		return nil
	})
	if err == nil && corrupt {
		err = os.ErrNotExist
	}

	return results, err
}

func (p persistence) DeleteStepResults(stepId string) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	key := []byte(stepId)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketSteps))
		if b == nil {
			// no step bucket yet
			return nil
		}
		v := b.Get(key)
		if v == nil {
			// no data for given key
			return nil
		}

		return b.Delete(key)
	})
}
