package docman

import (
	"time"

	"github.com/kailas-cloud/docman/internal/domain"
	"github.com/kailas-cloud/docman/internal/domain/validate"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs            []string
	username         string
	password         string
	database         int
	keyPrefix        string
	limits           Limits
	readinessTimeout time.Duration
}

// Limits caps validation and pagination. Zero fields keep the stock values.
type Limits struct {
	MaxPageSize     int
	DefaultPageSize int
	MaxFilters      int
	MaxSortFields   int
	MaxBulkSize     int
}

func (l Limits) toEngine() validate.Limits {
	out := validate.DefaultLimits()
	if l.MaxPageSize > 0 {
		out.MaxPageSize = l.MaxPageSize
	}
	if l.DefaultPageSize > 0 {
		out.DefaultPageSize = l.DefaultPageSize
	}
	if l.MaxFilters > 0 {
		out.MaxFilters = l.MaxFilters
	}
	if l.MaxSortFields > 0 {
		out.MaxSortFields = l.MaxSortFields
	}
	if l.MaxBulkSize > 0 {
		out.MaxBulkSize = l.MaxBulkSize
	}
	return out
}

// WithAddrs sets the database addresses.
func WithAddrs(addrs ...string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
	}
}

// WithAuth sets the database credentials.
func WithAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithDatabase selects a logical database number.
func WithDatabase(n int) Option {
	return func(c *clientConfig) {
		c.database = n
	}
}

// WithKeyPrefix overrides the key namespace. Defaults to "docman:".
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithLimits overrides validation and pagination caps.
func WithLimits(l Limits) Option {
	return func(c *clientConfig) {
		c.limits = l
	}
}

// WithReadinessTimeout bounds the wait for the database on startup.
func WithReadinessTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.readinessTimeout = d
	}
}

// DefaultKeyPrefix is the stock key namespace.
const DefaultKeyPrefix = domain.KeyPrefix
