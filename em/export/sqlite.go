package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/em/near2far"
)

// ErrCorrupt is returned by Read when the file is not a complete export.
var ErrCorrupt = errors.New("export: malformed export file")

const schema = `
	CREATE TABLE meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE frequencies (
		f INTEGER PRIMARY KEY,
		frequency REAL NOT NULL
	);
	CREATE TABLE axes (
		axis TEXT NOT NULL,
		idx INTEGER NOT NULL,
		coord REAL NOT NULL,
		PRIMARY KEY (axis, idx)
	);
	CREATE TABLE datasets (
		name TEXT PRIMARY KEY,
		component TEXT NOT NULL,
		part TEXT NOT NULL
	);
	CREATE TABLE data (
		dataset TEXT NOT NULL,
		f INTEGER NOT NULL,
		i INTEGER NOT NULL,
		j INTEGER NOT NULL,
		k INTEGER NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (dataset, f, i, j, k)
	) WITHOUT ROWID;
`

const intensityDataset = "e2"

func writeSQLite(ctx context.Context, res *Result, path string) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("export: open database: %w", err)
	}

	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: close database: %w", cerr)
		}
	}()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("export: create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("export: begin transaction: %w", err)
	}

	if err := fillTables(ctx, tx, res); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("export: commit: %w", err)
	}

	return nil
}

func fillTables(ctx context.Context, tx *sql.Tx, res *Result) error {
	shape := res.Grid.Shape()

	meta := [][2]string{
		{"run_id", res.RunID},
		{"created", time.Now().UTC().Format(time.RFC3339)},
		{"nfreq", strconv.Itoa(len(res.Frequencies))},
		{"nx", strconv.Itoa(shape[0])},
		{"ny", strconv.Itoa(shape[1])},
		{"nz", strconv.Itoa(shape[2])},
		{"resolution", strconv.FormatFloat(res.Grid.Resolution, 'g', -1, 64)},
	}

	for _, kv := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return fmt.Errorf("export: write meta: %w", err)
		}
	}

	for fi, f := range res.Frequencies {
		if _, err := tx.ExecContext(ctx, `INSERT INTO frequencies (f, frequency) VALUES (?, ?)`, fi, f); err != nil {
			return fmt.Errorf("export: write frequencies: %w", err)
		}
	}

	for _, a := range []geom.Axis{geom.X, geom.Y, geom.Z} {
		for i, x := range res.Grid.Axis(a) {
			if _, err := tx.ExecContext(ctx, `INSERT INTO axes (axis, idx, coord) VALUES (?, ?, ?)`, a.String(), i, x); err != nil {
				return fmt.Errorf("export: write axes: %w", err)
			}
		}
	}

	names := datasetNames()
	for d, name := range names {
		part := "real"
		if d%2 == 1 {
			part = "imag"
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO datasets (name, component, part) VALUES (?, ?, ?)`,
			name, geom.Components[d/2].String(), part); err != nil {
			return fmt.Errorf("export: write datasets: %w", err)
		}
	}

	if res.Intensity != nil {
		if _, err := tx.ExecContext(ctx, `INSERT INTO datasets (name, component, part) VALUES (?, ?, ?)`,
			intensityDataset, "e", "power"); err != nil {
			return fmt.Errorf("export: write datasets: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO data (dataset, f, i, j, k, value) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare insert: %w", err)
	}
	defer stmt.Close()

	for fi, fields := range res.Fields {
		for i := range shape[0] {
			for j := range shape[1] {
				for k := range shape[2] {
					p := res.Grid.Flat(i, j, k)

					for d, name := range names {
						if _, err := stmt.ExecContext(ctx, name, fi, i, j, k, componentValue(fields[p], d)); err != nil {
							return fmt.Errorf("export: write %s: %w", name, err)
						}
					}

					if res.Intensity != nil {
						if _, err := stmt.ExecContext(ctx, intensityDataset, fi, i, j, k, res.Intensity[fi][p]); err != nil {
							return fmt.Errorf("export: write %s: %w", intensityDataset, err)
						}
					}
				}
			}
		}
	}

	return nil
}

// Read loads an SQLite export. The grid centre and size are reconstructed
// from the stored axes.
func Read(path string) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("export: open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	res := &Result{}
	meta := map[string]string{}

	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		meta[k] = v
	}
	rows.Close()

	res.RunID = meta["run_id"]

	res.Grid.Resolution, err = strconv.ParseFloat(meta["resolution"], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: resolution: %v", ErrCorrupt, err)
	}

	if err := readFloats(ctx, db, `SELECT frequency FROM frequencies ORDER BY f`, &res.Frequencies); err != nil {
		return nil, err
	}

	var axes [3][]float64
	for _, a := range []geom.Axis{geom.X, geom.Y, geom.Z} {
		if err := readFloats(ctx, db, `SELECT coord FROM axes WHERE axis = ? ORDER BY idx`, &axes[a], a.String()); err != nil {
			return nil, err
		}

		if len(axes[a]) == 0 {
			return nil, fmt.Errorf("%w: empty %v axis", ErrCorrupt, a)
		}

		lo, hi := axes[a][0], axes[a][len(axes[a])-1]
		res.Grid.Center = geom.SetCoord(res.Grid.Center, a, (lo+hi)/2)
		res.Grid.Size = geom.SetCoord(res.Grid.Size, a, hi-lo)
	}

	npts := len(axes[0]) * len(axes[1]) * len(axes[2])
	if npts != res.Grid.Len() {
		return nil, fmt.Errorf("%w: axes do not match resolution", ErrCorrupt)
	}

	res.Fields = make([][]near2far.Field, len(res.Frequencies))
	for fi := range res.Fields {
		res.Fields[fi] = make([]near2far.Field, npts)
	}

	var hasIntensity bool
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) > 0 FROM datasets WHERE name = ?`, intensityDataset).Scan(&hasIntensity); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if hasIntensity {
		res.Intensity = make([][]float64, len(res.Frequencies))
		for fi := range res.Intensity {
			res.Intensity[fi] = make([]float64, npts)
		}
	}

	if err := readData(ctx, db, res); err != nil {
		return nil, err
	}

	return res, nil
}

func readFloats(ctx context.Context, db *sql.DB, query string, dst *[]float64, args ...any) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		*dst = append(*dst, v)
	}

	return rows.Err()
}

func readData(ctx context.Context, db *sql.DB, res *Result) error {
	index := map[string]int{}
	for d, name := range datasetNames() {
		index[name] = d
	}

	rows, err := db.QueryContext(ctx, `SELECT dataset, f, i, j, k, value FROM data`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer rows.Close()

	shape := res.Grid.Shape()

	for rows.Next() {
		var (
			name    string
			fi      int
			i, j, k int
			value   float64
		)

		if err := rows.Scan(&name, &fi, &i, &j, &k, &value); err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}

		if fi < 0 || fi >= len(res.Fields) || i < 0 || i >= shape[0] || j < 0 || j >= shape[1] || k < 0 || k >= shape[2] {
			return fmt.Errorf("%w: index (%d, %d, %d, %d) out of range", ErrCorrupt, fi, i, j, k)
		}

		p := res.Grid.Flat(i, j, k)

		if name == intensityDataset {
			if res.Intensity != nil {
				res.Intensity[fi][p] = value
			}
			continue
		}

		d, ok := index[name]
		if !ok {
			return fmt.Errorf("%w: unknown dataset %q", ErrCorrupt, name)
		}

		c := geom.Components[d/2]
		v := res.Fields[fi][p][c]

		if d%2 == 0 {
			res.Fields[fi][p][c] = complex(value, imag(v))
		} else {
			res.Fields[fi][p][c] = complex(real(v), value)
		}
	}

	return rows.Err()
}
