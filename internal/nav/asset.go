package nav

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const assetSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	idx  INTEGER PRIMARY KEY,
	x    REAL NOT NULL,
	y    REAL NOT NULL,
	z    REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS connections (
	a    INTEGER NOT NULL,
	b    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS routes (
	origin       INTEGER NOT NULL,
	destination  INTEGER NOT NULL,
	cost         REAL NOT NULL,
	path_json    TEXT NOT NULL,
	PRIMARY KEY (origin, destination)
);
`

// AssetStore persists a built navigation table as a self-contained SQLite
// asset: node positions, connection pairs, and one route row per covered
// (origin, destination) pair. Writes replace the prior contents wholesale;
// there is no incremental schema.
type AssetStore struct {
	db *sql.DB
}

// OpenAssetStore opens (creating if needed) the asset database and runs the
// schema migration.
func OpenAssetStore(path string) (*AssetStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("nav: open asset db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("nav: pragma: %w", err)
	}
	if _, err := db.Exec(assetSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("nav: migrate asset schema: %w", err)
	}
	return &AssetStore{db: db}, nil
}

// Close closes the underlying database.
func (s *AssetStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes the graph and table in one transaction, clearing any prior
// asset contents first.
func (s *AssetStore) Save(table *Table) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("nav: asset store not open")
	}
	if table == nil || table.Graph() == nil {
		return fmt.Errorf("nav: nothing to save")
	}
	graph := table.Graph()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("nav: begin save: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM routes", "DELETE FROM connections", "DELETE FROM nodes"} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("nav: clear asset: %w", err)
		}
	}

	for _, node := range graph.Nodes() {
		if _, err := tx.Exec(
			"INSERT INTO nodes (idx, x, y, z) VALUES (?, ?, ?, ?)",
			node.Index, node.Position.X, node.Position.Y, node.Position.Z,
		); err != nil {
			return fmt.Errorf("nav: save node %d: %w", node.Index, err)
		}
	}
	for _, conn := range graph.Connections() {
		if _, err := tx.Exec(
			"INSERT INTO connections (a, b) VALUES (?, ?)",
			conn.A, conn.B,
		); err != nil {
			return fmt.Errorf("nav: save connection %d-%d: %w", conn.A, conn.B, err)
		}
	}
	for key, route := range table.allRoutes() {
		encoded, err := json.Marshal(route.Nodes)
		if err != nil {
			return fmt.Errorf("nav: encode route %d-%d: %w", key.origin, key.destination, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO routes (origin, destination, cost, path_json) VALUES (?, ?, ?, ?)",
			key.origin, key.destination, route.Cost, string(encoded),
		); err != nil {
			return fmt.Errorf("nav: save route %d-%d: %w", key.origin, key.destination, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("nav: commit save: %w", err)
	}
	return nil
}

// Load reads the asset wholesale and reconstructs the graph and table without
// re-running any search.
func (s *AssetStore) Load() (*Table, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("nav: asset store not open")
	}

	nodeRows, err := s.db.Query("SELECT idx, x, y, z FROM nodes ORDER BY idx")
	if err != nil {
		return nil, fmt.Errorf("nav: load nodes: %w", err)
	}
	defer nodeRows.Close()

	positions := make([]Vec3, 0)
	for nodeRows.Next() {
		var idx int
		var pos Vec3
		if err := nodeRows.Scan(&idx, &pos.X, &pos.Y, &pos.Z); err != nil {
			return nil, fmt.Errorf("nav: scan node: %w", err)
		}
		if idx != len(positions) {
			return nil, fmt.Errorf("nav: asset node indices not contiguous at %d", idx)
		}
		positions = append(positions, pos)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, fmt.Errorf("nav: iterate nodes: %w", err)
	}

	connRows, err := s.db.Query("SELECT a, b FROM connections")
	if err != nil {
		return nil, fmt.Errorf("nav: load connections: %w", err)
	}
	defer connRows.Close()

	connections := make([]Connection, 0)
	for connRows.Next() {
		var conn Connection
		if err := connRows.Scan(&conn.A, &conn.B); err != nil {
			return nil, fmt.Errorf("nav: scan connection: %w", err)
		}
		connections = append(connections, conn)
	}
	if err := connRows.Err(); err != nil {
		return nil, fmt.Errorf("nav: iterate connections: %w", err)
	}

	graph, err := NewGraph(positions, connections)
	if err != nil {
		return nil, fmt.Errorf("nav: rebuild graph: %w", err)
	}

	routeRows, err := s.db.Query("SELECT origin, destination, cost, path_json FROM routes")
	if err != nil {
		return nil, fmt.Errorf("nav: load routes: %w", err)
	}
	defer routeRows.Close()

	table := &Table{graph: graph, routes: make(map[pairKey]Route)}
	for routeRows.Next() {
		var origin, destination int
		var cost float64
		var encoded string
		if err := routeRows.Scan(&origin, &destination, &cost, &encoded); err != nil {
			return nil, fmt.Errorf("nav: scan route: %w", err)
		}
		var nodes []int
		if err := json.Unmarshal([]byte(encoded), &nodes); err != nil {
			return nil, fmt.Errorf("nav: decode route %d-%d: %w", origin, destination, err)
		}
		table.routes[pairKey{origin: origin, destination: destination}] = Route{Nodes: nodes, Cost: cost}
	}
	if err := routeRows.Err(); err != nil {
		return nil, fmt.Errorf("nav: iterate routes: %w", err)
	}
	return table, nil
}
