// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/teamicebreaker/locator/resolver"
)

// ErrNotFound is returned when a placement does not exist.
var ErrNotFound = errors.New("placement not found")

// Repository handles persistence of placements.
type Repository interface {
	// CreateSchema creates the placements table.
	CreateSchema() error

	// Save inserts or updates the placement for (participant, query).
	Save(p *Placement) error

	// Get returns the placement for (participant, query).
	Get(participant, query string) (*Placement, error)

	// List returns placements, most recently updated first. A zero limit
	// returns every placement.
	List(limit, offset int) ([]*Placement, error)

	// ListByParticipant returns the placements of one participant.
	ListByParticipant(participant string) ([]*Placement, error)

	// AllSorted returns every placement sorted by participant and query.
	AllSorted() ([]*Placement, error)

	// BulkInsert inserts placements in a single transaction.
	BulkInsert(ps []*Placement) error

	// Count returns the number of placements.
	Count() (int, error)

	// Delete removes every placement of a participant and returns how many
	// were removed.
	Delete(participant string) (int64, error)

	// Clusters groups placements closer than distanceMeters.
	Clusters(distanceMeters float64) ([]*Cluster, error)

	// DB returns the underlying database connection.
	DB() *sql.DB
}

type sqlRepository struct {
	db *sql.DB
}

// NewRepository creates a placements repository over db.
func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	if _, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`); err != nil {
		return fmt.Errorf("loading spatial extension: %w", err)
	}

	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS placements_seq START 1;

		CREATE TABLE IF NOT EXISTS placements (
			id BIGINT PRIMARY KEY DEFAULT nextval('placements_seq'),
			participant VARCHAR NOT NULL,
			query VARCHAR NOT NULL,
			country VARCHAR NOT NULL DEFAULT '',
			point POINT_2D NOT NULL,
			display_name VARCHAR NOT NULL,
			confidence VARCHAR NOT NULL,
			match_type VARCHAR NOT NULL,
			provider VARCHAR NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			h3_res1 UBIGINT,
			h3_res2 UBIGINT,
			h3_res3 UBIGINT,
			h3_res4 UBIGINT,
			h3_res5 UBIGINT,
			h3_res6 UBIGINT,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT,
			UNIQUE(participant, query)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating placements table: %w", err)
	}

	return nil
}

func (r *sqlRepository) Save(p *Placement) error {
	if p == nil {
		return errors.New("placement can't be nil")
	}

	sanitize(p)

	if err := Validate(p); err != nil {
		return err
	}

	existing, err := r.Get(p.Participant, p.Query)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := p.computeH3(); err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()

	if existing == nil {
		p.CreatedAt = p.UpdatedAt

		return r.BulkInsert([]*Placement{p})
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt

	_, err = r.db.Exec(`
		UPDATE placements
		SET country = ?, point = ST_Point(?, ?), display_name = ?,
		    confidence = ?, match_type = ?, provider = ?, updated_at = ?,
		    h3_res1 = ?, h3_res2 = ?, h3_res3 = ?, h3_res4 = ?, h3_res5 = ?, h3_res6 = ?, h3_res7 = ?, h3_res8 = ?
		WHERE participant = ? AND query = ?
	`,
		p.Country,
		p.Point.Lng,
		p.Point.Lat,
		p.DisplayName,
		string(p.Confidence),
		string(p.MatchType),
		p.Provider,
		p.UpdatedAt,
		p.H3Res1,
		p.H3Res2,
		p.H3Res3,
		p.H3Res4,
		p.H3Res5,
		p.H3Res6,
		p.H3Res7,
		p.H3Res8,
		p.Participant,
		p.Query,
	)
	if err != nil {
		return fmt.Errorf("updating placement: %w", err)
	}

	return nil
}

func (r *sqlRepository) BulkInsert(ps []*Placement) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO placements(
			participant,
			query,
			country,
			point,
			display_name,
			confidence,
			match_type,
			provider,
			created_at,
			updated_at,
			h3_res1,
			h3_res2,
			h3_res3,
			h3_res4,
			h3_res5,
			h3_res6,
			h3_res7,
			h3_res8
		)
		VALUES (?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()

	for _, p := range ps {
		sanitize(p)

		if err := Validate(p); err != nil {
			return errors.Join(fmt.Errorf("placement %s/%s: %w", p.Participant, p.Query, err), tx.Rollback())
		}

		if err := p.computeH3(); err != nil {
			return errors.Join(err, tx.Rollback())
		}

		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}

		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}

		err := stmt.QueryRow(
			p.Participant,
			p.Query,
			p.Country,
			p.Point.Lng,
			p.Point.Lat,
			p.DisplayName,
			string(p.Confidence),
			string(p.MatchType),
			p.Provider,
			p.CreatedAt,
			p.UpdatedAt,
			p.H3Res1,
			p.H3Res2,
			p.H3Res3,
			p.H3Res4,
			p.H3Res5,
			p.H3Res6,
			p.H3Res7,
			p.H3Res8,
		).Scan(&p.ID)
		if err != nil {
			return errors.Join(fmt.Errorf("inserting placement %s/%s: %w", p.Participant, p.Query, err), tx.Rollback())
		}
	}

	return tx.Commit()
}

var baseSelect = `
	SELECT id, participant, query, country, point, display_name,
	       confidence, match_type, provider, created_at, updated_at,
	       h3_res1, h3_res2, h3_res3, h3_res4, h3_res5, h3_res6, h3_res7, h3_res8
	FROM placements
`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlacement(row scanner) (*Placement, error) {
	p := &Placement{}

	var confidence, matchType string

	var h3 [8]sql.NullInt64

	err := row.Scan(
		&p.ID, &p.Participant, &p.Query, &p.Country, &p.Point, &p.DisplayName,
		&confidence, &matchType, &p.Provider, &p.CreatedAt, &p.UpdatedAt,
		&h3[0], &h3[1], &h3[2], &h3[3], &h3[4], &h3[5], &h3[6], &h3[7],
	)
	if err != nil {
		return nil, err
	}

	p.Confidence = resolver.Confidence(confidence)
	p.MatchType = resolver.MatchType(matchType)

	for i, col := range p.h3Columns() {
		if h3[i].Valid {
			*col = h3[i].Int64
		}
	}

	return p, nil
}

func (r *sqlRepository) Get(participant, query string) (*Placement, error) {
	p, err := scanPlacement(r.db.QueryRow(baseSelect+` WHERE participant = ? AND query = ?`, participant, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("getting placement: %w", err)
	}

	return p, nil
}

func (r *sqlRepository) list(query string, args ...any) ([]*Placement, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing placements: %w", err)
	}
	defer rows.Close()

	var placements []*Placement

	for rows.Next() {
		p, err := scanPlacement(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning placement: %w", err)
		}

		placements = append(placements, p)
	}

	return placements, rows.Err()
}

func (r *sqlRepository) List(limit, offset int) ([]*Placement, error) {
	query := baseSelect + " ORDER BY updated_at DESC, id DESC"

	if limit > 0 {
		return r.list(query+" LIMIT ? OFFSET ?", limit, offset)
	}

	return r.list(query)
}

func (r *sqlRepository) ListByParticipant(participant string) ([]*Placement, error) {
	return r.list(baseSelect+" WHERE participant = ? ORDER BY query", participant)
}

func (r *sqlRepository) AllSorted() ([]*Placement, error) {
	return r.list(baseSelect + " ORDER BY participant, query")
}

func (r *sqlRepository) Count() (int, error) {
	var count int

	err := r.db.QueryRow("SELECT COUNT(*) FROM placements").Scan(&count)

	return count, err
}

func (r *sqlRepository) Delete(participant string) (int64, error) {
	res, err := r.db.Exec("DELETE FROM placements WHERE participant = ?", participant)
	if err != nil {
		return 0, fmt.Errorf("deleting placements: %w", err)
	}

	return res.RowsAffected()
}
