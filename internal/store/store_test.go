package store

import (
	"strings"
	"testing"
	"time"

	"github.com/gocql/gocql"
)

func TestParseConsistency(t *testing.T) {
	cases := []struct {
		name string
		want gocql.Consistency
	}{
		{"ONE", gocql.One},
		{"QUORUM", gocql.Quorum},
		{"LOCAL_QUORUM", gocql.LocalQuorum},
		{"ALL", gocql.All},
	}
	for _, tc := range cases {
		got, err := ParseConsistency(tc.name)
		if err != nil {
			t.Errorf("ParseConsistency(%q): %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseConsistency(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}

	for _, bad := range []string{"", "TWO", "one", "EACH_QUORUM"} {
		if _, err := ParseConsistency(bad); err == nil {
			t.Errorf("ParseConsistency(%q): expected error", bad)
		}
	}
}

func TestConsistencyNamesAllParse(t *testing.T) {
	for _, name := range ConsistencyNames() {
		if _, err := ParseConsistency(name); err != nil {
			t.Errorf("listed name %q does not parse: %v", name, err)
		}
	}
}

// TestOpenRejectsBadKeyspaceName ensures validation happens before any
// network connection is attempted.
func TestOpenRejectsBadKeyspaceName(t *testing.T) {
	for _, bad := range []string{"", "1keyspace", "has-dash", "has space", "drop;table"} {
		_, err := Open(Config{
			ContactPoints: []string{"localhost"},
			Port:          9042,
			Keyspace:      bad,
		})
		if err == nil {
			t.Errorf("Open accepted keyspace %q", bad)
			continue
		}
		if !strings.Contains(err.Error(), "invalid keyspace name") {
			t.Errorf("keyspace %q: unexpected error %v", bad, err)
		}
	}
}

func TestKeyspacePattern(t *testing.T) {
	for _, ok := range []string{"test_scaling", "ks1", "A_b_2"} {
		if !keyspacePattern.MatchString(ok) {
			t.Errorf("rejected valid keyspace %q", ok)
		}
	}
}

func TestNewClusterSettings(t *testing.T) {
	cfg := Config{
		ContactPoints: []string{"node-a", "node-b"},
		Port:          9142,
		Username:      "user",
		Password:      "pass",
		Timeout:       3 * time.Second,
	}
	cluster := newCluster(cfg, "bench")

	if len(cluster.Hosts) != 2 || cluster.Hosts[0] != "node-a" {
		t.Errorf("hosts = %v", cluster.Hosts)
	}
	if cluster.Port != 9142 {
		t.Errorf("port = %d", cluster.Port)
	}
	if cluster.Keyspace != "bench" {
		t.Errorf("keyspace = %q", cluster.Keyspace)
	}
	if cluster.Timeout != 3*time.Second || cluster.ConnectTimeout != 3*time.Second {
		t.Errorf("timeouts = %s/%s", cluster.Timeout, cluster.ConnectTimeout)
	}
	auth, ok := cluster.Authenticator.(gocql.PasswordAuthenticator)
	if !ok || auth.Username != "user" || auth.Password != "pass" {
		t.Errorf("authenticator = %#v", cluster.Authenticator)
	}
}

func TestNewClusterWithoutCredentials(t *testing.T) {
	cluster := newCluster(Config{ContactPoints: []string{"node"}, Port: 9042}, "")
	if cluster.Authenticator != nil {
		t.Errorf("authenticator set without credentials: %#v", cluster.Authenticator)
	}
	if cluster.Keyspace != "" {
		t.Errorf("keyspace = %q, want empty for admin session", cluster.Keyspace)
	}
}

func TestNewAdapterValidation(t *testing.T) {
	if _, err := NewAdapter(nil, "TWO", []string{"device-a"}, nil, "ks"); err == nil {
		t.Error("accepted unsupported consistency")
	}
	if _, err := NewAdapter(nil, "ONE", nil, nil, "ks"); err == nil {
		t.Error("accepted empty device pool")
	}
	if _, err := NewAdapter(nil, "ONE", []string{"device-a"}, nil, "ks"); err != nil {
		t.Errorf("rejected valid arguments: %v", err)
	}
}
