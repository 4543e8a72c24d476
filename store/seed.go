// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// SeedData is the JSON export format.
type SeedData struct {
	Version     string       `json:"version"`
	LastUpdated time.Time    `json:"last_updated"`
	Placements  []*Placement `json:"placements"`
}

// ExportJSON writes every placement to a JSON file.
func ExportJSON(repo Repository, path string) (int, error) {
	placements, err := repo.AllSorted()
	if err != nil {
		return 0, fmt.Errorf("listing placements: %w", err)
	}

	if placements == nil {
		placements = []*Placement{}
	}

	seed := &SeedData{
		Version:     "1.0",
		LastUpdated: time.Now().UTC(),
		Placements:  placements,
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(placements), nil
}

// ImportJSON saves every placement of a JSON file, updating existing ones.
func ImportJSON(repo Repository, path string) (int, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	imported := 0

	for _, p := range seed.Placements {
		if err := repo.Save(p); err != nil {
			return imported, fmt.Errorf("saving placement %s/%s: %w", p.Participant, p.Query, err)
		}

		imported++
	}

	return imported, nil
}

// SeedIfEmpty imports path when the repository has no placements. A
// missing file is not an error.
func SeedIfEmpty(repo Repository, path string) (bool, int, error) {
	count, err := repo.Count()
	if err != nil {
		return false, 0, fmt.Errorf("counting placements: %w", err)
	}

	if count > 0 {
		return false, count, nil
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, 0, nil
	}

	imported, err := ImportJSON(repo, path)
	if err != nil {
		return false, 0, err
	}

	return true, imported, nil
}
