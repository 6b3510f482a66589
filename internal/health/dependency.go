package health

import (
	"context"
	"net"
	"strconv"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// probe adapts a ping function to Checker.
type probe struct {
	name string
	ping func(ctx context.Context) error
}

func (p probe) Check(ctx context.Context) CheckResult {
	if err := p.ping(ctx); err != nil {
		return CheckResult{Name: p.name, Error: err.Error()}
	}
	return CheckResult{Name: p.name, Healthy: true}
}

// NewDBChecker pings the account database. A nil db yields a nil Checker.
func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return probe{name: "db", ping: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}
}

// NewRedisChecker pings the throttle and list cache backend.
func NewRedisChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return probe{name: "redis", ping: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// NewSMTPChecker only opens a TCP connection to the relay; it never speaks
// the protocol. An empty host yields a nil Checker.
func NewSMTPChecker(host string, port int) Checker {
	if host == "" {
		return nil
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	return probe{name: "smtp", ping: func(ctx context.Context) error {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}}
}
