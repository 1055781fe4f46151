package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Append commits a new generation holding the given state snapshot and
// returns it with its store-assigned sequence number. Sequence numbers are
// strictly increasing, starting at 1.
//
// The whole append runs in one transaction: on any failure the store is left
// exactly as it was, and a reader never observes a half-written generation.
func (s *Store) Append(backends []string, state map[string][]string) (*Generation, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, wrapQueryErr("append generation", err)
	}
	defer tx.Rollback()

	createdAt := time.Now().UTC()
	res, err := tx.Exec(
		`INSERT INTO generations (created_at) VALUES (?)`,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, wrapQueryErr("append generation", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, wrapQueryErr("append generation", err)
	}

	snapshot := make(map[string][]string, len(backends))
	for pos, name := range backends {
		if _, err := tx.Exec(
			`INSERT INTO generation_backends (sequence, position, backend) VALUES (?, ?, ?)`,
			seq, pos, name,
		); err != nil {
			return nil, fmt.Errorf("failed to record backend %s: %w", name, err)
		}
		pkgs := state[name]
		for i, pkg := range pkgs {
			if _, err := tx.Exec(
				`INSERT INTO generation_packages (sequence, backend, position, package) VALUES (?, ?, ?, ?)`,
				seq, name, i, pkg,
			); err != nil {
				return nil, fmt.Errorf("failed to record package %s/%s: %w", name, pkg, err)
			}
		}
		snapshot[name] = append([]string(nil), pkgs...)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapQueryErr("append generation", err)
	}

	return &Generation{
		Sequence:  seq,
		CreatedAt: createdAt,
		Backends:  append([]string(nil), backends...),
		State:     snapshot,
	}, nil
}

// Latest returns the generation with the highest sequence number, or nil
// when the store is empty.
func (s *Store) Latest() (*Generation, error) {
	var seq int64
	err := s.db.QueryRow(`SELECT sequence FROM generations ORDER BY sequence DESC LIMIT 1`).Scan(&seq)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapQueryErr("latest generation", err)
	}
	return s.Get(seq)
}

// Get returns the generation with the given sequence number, or ErrNotFound.
func (s *Store) Get(seq int64) (*Generation, error) {
	gen := &Generation{Sequence: seq, State: make(map[string][]string)}

	var createdAt string
	err := s.db.QueryRow(
		`SELECT created_at FROM generations WHERE sequence = ?`, seq,
	).Scan(&createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("generation %d: %w", seq, ErrNotFound)
	}
	if err != nil {
		return nil, wrapQueryErr(fmt.Sprintf("get generation %d", seq), err)
	}
	gen.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for generation %d: %w", seq, err)
	}

	if err := s.loadState(gen); err != nil {
		return nil, err
	}
	return gen, nil
}

// List returns all generations in ascending sequence order.
func (s *Store) List() ([]*Generation, error) {
	rows, err := s.db.Query(`SELECT sequence FROM generations ORDER BY sequence ASC`)
	if err != nil {
		return nil, wrapQueryErr("list generations", err)
	}
	defer rows.Close()

	var seqs []int64
	for rows.Next() {
		var seq int64
		if err := rows.Scan(&seq); err != nil {
			return nil, fmt.Errorf("failed to scan generation row: %w", err)
		}
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryErr("list generations", err)
	}

	gens := make([]*Generation, 0, len(seqs))
	for _, seq := range seqs {
		gen, err := s.Get(seq)
		if err != nil {
			return nil, err
		}
		gens = append(gens, gen)
	}
	return gens, nil
}

// loadState fills in the backend order and per-backend package lists for an
// already-identified generation.
func (s *Store) loadState(gen *Generation) error {
	rows, err := s.db.Query(
		`SELECT backend FROM generation_backends WHERE sequence = ? ORDER BY position ASC`,
		gen.Sequence,
	)
	if err != nil {
		return wrapQueryErr(fmt.Sprintf("load generation %d backends", gen.Sequence), err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan backend row: %w", err)
		}
		gen.Backends = append(gen.Backends, name)
		gen.State[name] = nil
	}
	if err := rows.Err(); err != nil {
		return wrapQueryErr(fmt.Sprintf("load generation %d backends", gen.Sequence), err)
	}

	pkgRows, err := s.db.Query(
		`SELECT backend, package FROM generation_packages WHERE sequence = ? ORDER BY backend, position ASC`,
		gen.Sequence,
	)
	if err != nil {
		return wrapQueryErr(fmt.Sprintf("load generation %d packages", gen.Sequence), err)
	}
	defer pkgRows.Close()

	for pkgRows.Next() {
		var backendName, pkg string
		if err := pkgRows.Scan(&backendName, &pkg); err != nil {
			return fmt.Errorf("failed to scan package row: %w", err)
		}
		gen.State[backendName] = append(gen.State[backendName], pkg)
	}
	if err := pkgRows.Err(); err != nil {
		return wrapQueryErr(fmt.Sprintf("load generation %d packages", gen.Sequence), err)
	}
	return nil
}

// IsNotFound reports whether err means a missing generation.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
