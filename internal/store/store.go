// Package store connects to the Cassandra cluster and executes the keyed
// reads and writes the load run is made of.
package store

import (
	"fmt"
	"regexp"
	"time"

	"github.com/gocql/gocql"
)

// Config holds the connection parameters consumed during setup. The run
// loop itself never touches them.
type Config struct {
	ContactPoints []string
	Port          int
	Username      string
	Password      string
	Keyspace      string
	Consistency   string
	Timeout       time.Duration
}

const createKeyspaceCQL = `CREATE KEYSPACE IF NOT EXISTS %s
WITH replication = {'class': 'SimpleStrategy', 'replication_factor': '1'}`

const createTableCQL = `CREATE TABLE IF NOT EXISTS sensor_data (
	device_id text,
	ts timestamp,
	value double,
	PRIMARY KEY (device_id, ts)
) WITH CLUSTERING ORDER BY (ts DESC)`

var keyspacePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// consistencyLevels maps the configuration surface to driver constants.
var consistencyLevels = map[string]gocql.Consistency{
	"ONE":          gocql.One,
	"QUORUM":       gocql.Quorum,
	"LOCAL_QUORUM": gocql.LocalQuorum,
	"ALL":          gocql.All,
}

// ParseConsistency resolves a consistency level name. The accepted names
// are ONE, QUORUM, LOCAL_QUORUM and ALL.
func ParseConsistency(name string) (gocql.Consistency, error) {
	if cl, ok := consistencyLevels[name]; ok {
		return cl, nil
	}
	return 0, fmt.Errorf("unsupported consistency level %q", name)
}

// ConsistencyNames lists the accepted consistency level names.
func ConsistencyNames() []string {
	return []string{"ONE", "QUORUM", "LOCAL_QUORUM", "ALL"}
}

func newCluster(cfg Config, keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.ContactPoints...)
	cluster.Port = cfg.Port
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
		cluster.ConnectTimeout = cfg.Timeout
	}
	if keyspace != "" {
		cluster.Keyspace = keyspace
	}
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	return cluster
}

// Open connects to the cluster, provisions the keyspace and table
// (idempotent), and returns a session bound to the keyspace. Any failure
// here is a setup error and fatal to the run.
func Open(cfg Config) (*gocql.Session, error) {
	if !keyspacePattern.MatchString(cfg.Keyspace) {
		return nil, fmt.Errorf("invalid keyspace name %q", cfg.Keyspace)
	}

	// Provisioning runs on a keyspace-less session: the keyspace may not
	// exist yet when the session is created.
	admin, err := newCluster(cfg, "").CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to %v: %w", cfg.ContactPoints, err)
	}
	if err := admin.Query(fmt.Sprintf(createKeyspaceCQL, cfg.Keyspace)).Exec(); err != nil {
		admin.Close()
		return nil, fmt.Errorf("create keyspace %s: %w", cfg.Keyspace, err)
	}
	admin.Close()

	session, err := newCluster(cfg, cfg.Keyspace).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to keyspace %s: %w", cfg.Keyspace, err)
	}
	if err := session.Query(createTableCQL).Exec(); err != nil {
		session.Close()
		return nil, fmt.Errorf("create table sensor_data: %w", err)
	}
	return session, nil
}
