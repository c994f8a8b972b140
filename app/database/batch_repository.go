package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type BatchRepo struct {
	db *DB
}

var _ BatchRepository = (*BatchRepo)(nil)

func NewBatchRepository(db *DB) *BatchRepo {
	return &BatchRepo{db: db}
}

func (r *BatchRepo) GetBatch(searchID int64) (*Batch, error) {
	var raw []byte
	batch := Batch{SearchID: searchID}

	err := r.db.QueryRow(`SELECT documents, fetched_at FROM batches WHERE search_id = $1`, searchID).
		Scan(&raw, &batch.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	if err := json.Unmarshal(raw, &batch.Documents); err != nil {
		return nil, fmt.Errorf("failed to decode batch documents: %w", err)
	}
	return &batch, nil
}

// PutBatch replaces the stored batch of a search.
func (r *BatchRepo) PutBatch(searchID int64, documents []json.RawMessage, fetchedAt time.Time) error {
	if documents == nil {
		documents = []json.RawMessage{}
	}
	raw, err := json.Marshal(documents)
	if err != nil {
		return fmt.Errorf("failed to encode batch documents: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO batches (search_id, documents, doc_count, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (search_id) DO UPDATE SET
			documents = EXCLUDED.documents,
			doc_count = EXCLUDED.doc_count,
			fetched_at = EXCLUDED.fetched_at
	`, searchID, raw, len(documents), fetchedAt)
	if err != nil {
		return fmt.Errorf("failed to store batch: %w", err)
	}
	return nil
}
