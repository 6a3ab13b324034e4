package store

import (
	"database/sql"
	"encoding/json"
	"log"

	"github.com/example/custom-order-service/internal/readmodel"
)

// PostgresReadStore implements ReadStoreInterface on a single JSONB document
// table (read_models: collection, id, data). Read models are projector
// output, so the document shape can change without migrations.
type PostgresReadStore struct {
	db *sql.DB
}

// NewPostgresReadStore creates a new PostgreSQL-based read store
func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

// Set stores a read model
func (rs *PostgresReadStore) Set(collection, id string, data any) {
	doc, err := json.Marshal(data)
	if err != nil {
		log.Printf("[ReadStore] Failed to marshal %s/%s: %v", collection, id, err)
		return
	}
	_, err = rs.db.Exec(
		`INSERT INTO read_models (collection, id, data)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`,
		collection, id, doc,
	)
	if err != nil {
		log.Printf("[ReadStore] Failed to store %s/%s: %v", collection, id, err)
	}
}

// Get retrieves a read model by id
func (rs *PostgresReadStore) Get(collection, id string) (any, bool) {
	var doc []byte
	err := rs.db.QueryRow(
		`SELECT data FROM read_models WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		log.Printf("[ReadStore] Failed to get %s/%s: %v", collection, id, err)
		return nil, false
	}

	model := newModel(collection)
	if model == nil {
		return nil, false
	}
	if err := json.Unmarshal(doc, model); err != nil {
		log.Printf("[ReadStore] Failed to unmarshal %s/%s: %v", collection, id, err)
		return nil, false
	}
	return model, true
}

// GetAll retrieves all items in a collection
func (rs *PostgresReadStore) GetAll(collection string) []any {
	rows, err := rs.db.Query(
		`SELECT data FROM read_models WHERE collection = $1`,
		collection,
	)
	if err != nil {
		log.Printf("[ReadStore] Failed to list %s: %v", collection, err)
		return nil
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			continue
		}
		model := newModel(collection)
		if model == nil {
			continue
		}
		if err := json.Unmarshal(doc, model); err != nil {
			continue
		}
		items = append(items, model)
	}
	return items
}

// Delete removes a read model
func (rs *PostgresReadStore) Delete(collection, id string) {
	if _, err := rs.db.Exec(
		`DELETE FROM read_models WHERE collection = $1 AND id = $2`,
		collection, id,
	); err != nil {
		log.Printf("[ReadStore] Failed to delete %s/%s: %v", collection, id, err)
	}
}

// Update modifies a read model using an update function
func (rs *PostgresReadStore) Update(collection, id string, updateFn func(current any) any) bool {
	current, ok := rs.Get(collection, id)
	if !ok {
		return false
	}
	rs.Set(collection, id, updateFn(current))
	return true
}

// GetUserByEmail finds a user read model by email
func (rs *PostgresReadStore) GetUserByEmail(email string) (*readmodel.UserReadModel, bool) {
	var doc []byte
	err := rs.db.QueryRow(
		`SELECT data FROM read_models WHERE collection = 'users' AND data->>'email' = $1`,
		email,
	).Scan(&doc)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[ReadStore] Failed to find user by email: %v", err)
		}
		return nil, false
	}
	var user readmodel.UserReadModel
	if err := json.Unmarshal(doc, &user); err != nil {
		return nil, false
	}
	return &user, true
}

// DeleteSessionsByUserID removes all session read models for a user
func (rs *PostgresReadStore) DeleteSessionsByUserID(userID string) error {
	_, err := rs.db.Exec(
		`DELETE FROM read_models WHERE collection = 'sessions' AND data->>'user_id' = $1`,
		userID,
	)
	return err
}

// newModel returns an empty read model for a collection
func newModel(collection string) any {
	switch collection {
	case "orders":
		return &readmodel.OrderReadModel{}
	case "users":
		return &readmodel.UserReadModel{}
	case "sessions":
		return &readmodel.SessionReadModel{}
	}
	return nil
}
