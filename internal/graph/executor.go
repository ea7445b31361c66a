package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"finassist/internal/domain"
)

// QueryRunner executes one read-only Cypher query with bound parameters and
// returns its rows.
type QueryRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
}

// Execute runs a vetted query through the runner.
func (s *Service) Execute(ctx context.Context, spec *QuerySpec) ([]map[string]any, error) {
	rows, err := s.runner.Run(ctx, spec.Cypher, spec.Parameters)
	if err != nil {
		return nil, &domain.GraphQueryError{Reason: "run query", Err: err}
	}
	return rows, nil
}

// Neo4jRunner runs queries against a Neo4j server over Bolt. Sessions are
// opened read-only, so even a query that slipped past vetting cannot write.
type Neo4jRunner struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// NewNeo4jRunner connects to the server at uri. A zero timeout leaves query
// deadlines to the caller's context.
func NewNeo4jRunner(uri, user, password, database string, timeout time.Duration) (*Neo4jRunner, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("NewNeo4jRunner: %w", err)
	}
	return &Neo4jRunner{driver: driver, database: database, timeout: timeout}, nil
}

func (r *Neo4jRunner) Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}

	var rows []map[string]any
	for result.Next(ctx) {
		rows = append(rows, result.Record().AsMap())
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}
	return rows, nil
}

// Close releases the underlying driver and its connection pool.
func (r *Neo4jRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}
