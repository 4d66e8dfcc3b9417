package shard

import (
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/aryankumar/shardexec/internal/config"
)

// DescribeDSN extracts host, database and user from a driver DSN
func DescribeDSN(driver, dsn string) (Endpoint, error) {
	switch driver {
	case config.DriverMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return Endpoint{}, fmt.Errorf("failed to parse mysql dsn: %w", err)
		}
		return Endpoint{Host: cfg.Addr, Database: cfg.DBName, User: cfg.User}, nil

	case config.DriverPostgres:
		return describePostgres(dsn)

	default:
		return Endpoint{}, fmt.Errorf("unsupported driver %q", driver)
	}
}

// describePostgres accepts both URL and key=value connection strings
func describePostgres(dsn string) (Endpoint, error) {
	conninfo := dsn
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		converted, err := pq.ParseURL(dsn)
		if err != nil {
			return Endpoint{}, fmt.Errorf("failed to parse postgres url: %w", err)
		}
		conninfo = converted
	}

	params := make(map[string]string)
	for _, field := range strings.Fields(conninfo) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return Endpoint{}, fmt.Errorf("invalid postgres connection parameter %q", field)
		}
		params[key] = strings.Trim(value, "'")
	}

	host := params["host"]
	if host == "" {
		host = "localhost"
	}
	port := params["port"]
	if port == "" {
		port = "5432"
	}

	return Endpoint{
		Host:     net.JoinHostPort(host, port),
		Database: params["dbname"],
		User:     params["user"],
	}, nil
}

// Describe builds the listing entry of one configured shard. An unparsable
// DSN leaves the endpoint fields empty.
func Describe(name string, cfg config.ShardConfig) Info {
	info := Info{
		Name:    name,
		Driver:  cfg.Driver,
		Enabled: cfg.Enabled,
		Labels:  cfg.Labels,
	}
	if ep, err := DescribeDSN(cfg.Driver, cfg.DSN); err == nil {
		info.Host = ep.Host
		info.Database = ep.Database
		info.User = ep.User
	}
	return info
}
