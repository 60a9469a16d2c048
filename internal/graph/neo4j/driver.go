package neo4jsink

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// runner executes one Cypher statement and returns its records as maps.
type runner interface {
	Run(ctx context.Context, query string, params map[string]any, mode neo4j.AccessMode) ([]map[string]any, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// driverRunner opens one session per statement and runs writes inside a
// managed transaction so the driver retries transient cluster errors.
type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func newDriverRunner(uri, username, password, database string) (*driverRunner, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &driverRunner{driver: driver, database: database}, nil
}

func (d *driverRunner) Run(
	ctx context.Context,
	query string,
	params map[string]any,
	mode neo4j.AccessMode,
) ([]map[string]any, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: d.database})
	defer func() {
		_ = session.Close(ctx)
	}()

	work := func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(records))
		for _, record := range records {
			rows = append(rows, record.AsMap())
		}
		return rows, nil
	}

	var out any
	var err error
	if mode == neo4j.AccessModeWrite {
		out, err = session.ExecuteWrite(ctx, work)
	} else {
		out, err = session.ExecuteRead(ctx, work)
	}
	if err != nil {
		return nil, err
	}
	rows, _ := out.([]map[string]any)
	return rows, nil
}

func (d *driverRunner) Ping(ctx context.Context) error {
	return d.driver.VerifyConnectivity(ctx)
}

func (d *driverRunner) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}
