// Package rhea loads the Rhea reaction direction table. Importing it registers the module.
package rhea

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/bio2bel/bio2bel/pkg/manager"
)

const (
	// ModuleName is the name Rhea is registered under.
	ModuleName = "rhea"
	// DirectionsFile is the Rhea release file read from the module's data directory.
	DirectionsFile = "rhea-directions.tsv"
	// ReactionTable holds one row per master reaction.
	ReactionTable = "rhea_reaction"
)

// ErrSourceMissing is returned when the directions file has not been placed in the data directory.
var ErrSourceMissing = errors.New("rhea source file not found")

var header = []string{"RHEA_ID_MASTER", "RHEA_ID_LR", "RHEA_ID_RL", "RHEA_ID_BI"}

// Reaction links an undirected master reaction to its directional variants.
type Reaction struct {
	MasterID        int64
	LeftToRightID   int64
	RightToLeftID   int64
	BidirectionalID int64
}

// Module implements manager.Module for Rhea.
type Module struct{}

func init() {
	manager.Register(Module{})
}

func (Module) Name() string { return ModuleName }

func (Module) Tables() []manager.Table {
	return []manager.Table{{
		Name: ReactionTable,
		Create: `CREATE TABLE rhea_reaction (
	master_id BIGINT PRIMARY KEY,
	left_to_right_id BIGINT NOT NULL,
	right_to_left_id BIGINT NOT NULL,
	bidirectional_id BIGINT NOT NULL
)`,
	}}
}

// Populate reads DirectionsFile from the module's data directory and stores every reaction.
func (Module) Populate(ctx context.Context, m *manager.Manager) error {
	dir, err := m.DataDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, DirectionsFile)

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSourceMissing, path)
	}
	if err != nil {
		return err
	}
	defer f.Close()

	reactions, err := ReadDirections(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	db := m.DB()
	query := db.Rebind("INSERT INTO rhea_reaction (master_id, left_to_right_id, right_to_left_id, bidirectional_id) VALUES (?, ?, ?, ?)")
	err = db.Transaction(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range reactions {
			if _, err := stmt.ExecContext(ctx, r.MasterID, r.LeftToRightID, r.RightToLeftID, r.BidirectionalID); err != nil {
				return fmt.Errorf("failed to insert reaction %d: %w", r.MasterID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("path", path).Int("reactions", len(reactions)).Msg("Loaded Rhea reactions")
	return nil
}

// ReadDirections parses the tab-separated directions table. The header row is required.
func ReadDirections(r io.Reader) ([]Reaction, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = len(header)
	cr.ReuseRecord = true

	first, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, err
	}
	for i, name := range header {
		if first[i] != name {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i+1, first[i], name)
		}
	}

	var reactions []Reaction
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return reactions, nil
		}
		if err != nil {
			return nil, err
		}

		var ids [4]int64
		for i, field := range record {
			ids[i], err = strconv.ParseInt(field, 10, 64)
			if err != nil {
				line, _ := cr.FieldPos(i)
				return nil, fmt.Errorf("line %d: invalid %s %q", line, header[i], field)
			}
		}
		reactions = append(reactions, Reaction{
			MasterID:        ids[0],
			LeftToRightID:   ids[1],
			RightToLeftID:   ids[2],
			BidirectionalID: ids[3],
		})
	}
}
