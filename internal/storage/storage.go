// Package storage provides persistent data storage for the KOI classifier
// service. It uses BoltDB as the underlying storage engine to keep an audit
// log of served predictions and a record of offline training runs.
//
// The package provides thread-safe operations for storing and retrieving
// time-ordered records with efficient range scans and automatic bucket
// management.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	predictionsBucket  = "predictions"   // Bucket for served prediction records
	trainingRunsBucket = "training_runs" // Bucket for offline training run summaries
)

// PredictionRecord is one served classification, stored for the history
// endpoint and offline analysis.
type PredictionRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	Engine      string    `json:"engine"`
	Prediction  int       `json:"prediction"`
	Probability float64   `json:"probability"`
	Batch       bool      `json:"batch"`
}

// TrainingRun summarizes one offline training execution.
type TrainingRun struct {
	Timestamp    time.Time `json:"timestamp"`
	Samples      int       `json:"samples"`
	Features     int       `json:"features"`
	Epochs       int       `json:"epochs"`
	LearningRate float64   `json:"learning_rate"`
	Accuracy     float64   `json:"accuracy"`
	ArtifactPath string    `json:"artifact_path"`
}

// Store provides persistent storage backed by BoltDB.
type Store struct {
	db *bbolt.DB
}

// New creates a new storage instance rooted at dataPath. It initializes the
// BoltDB database and creates the required buckets. Returns an error if the
// database cannot be opened or buckets cannot be created.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "exodetect-data.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(trainingRunsBucket)); err != nil {
			return fmt.Errorf("create training runs bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StorePrediction appends a served prediction to the audit log. Keys are
// zero-padded nanosecond timestamps so cursor scans return records in time
// order.
func (s *Store) StorePrediction(record PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal prediction record: %w", err)
		}

		return b.Put(timeKey(record.Timestamp), data)
	})
}

// RecentPredictions returns up to limit predictions, newest first.
func (s *Store) RecentPredictions(limit int) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			var record PredictionRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue // Skip malformed records
			}
			records = append(records, record)
		}
		return nil
	})

	return records, err
}

// PredictionsInRange returns predictions with timestamps in [start, end],
// oldest first.
func (s *Store) PredictionsInRange(start, end time.Time) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()

		for k, v := c.Seek(timeKey(start)); k != nil && bytes.Compare(k, timeKey(end)) <= 0; k, v = c.Next() {
			var record PredictionRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue
			}
			records = append(records, record)
		}
		return nil
	})

	return records, err
}

// StoreTrainingRun records an offline training execution.
func (s *Store) StoreTrainingRun(run TrainingRun) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(trainingRunsBucket))

		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshal training run: %w", err)
		}

		return b.Put(timeKey(run.Timestamp), data)
	})
}

// TrainingRuns returns all recorded training runs, oldest first.
func (s *Store) TrainingRuns() ([]TrainingRun, error) {
	var runs []TrainingRun

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(trainingRunsBucket)).ForEach(func(_, v []byte) error {
			var run TrainingRun
			if err := json.Unmarshal(v, &run); err != nil {
				return nil
			}
			runs = append(runs, run)
			return nil
		})
	})

	return runs, err
}

func timeKey(t time.Time) []byte {
	return []byte(fmt.Sprintf("%020d", t.UnixNano()))
}
