package records

import (
	"fmt"
	"strings"
)

// Config holds the defaults applied to sync requests.
type Config struct {
	// LocalKey is the local column holding the remote primary key.
	LocalKey string `mapstructure:"local_key" default:"remote_id"`
	// RemoteKey is the key path of the primary key in remote records.
	RemoteKey string `mapstructure:"remote_key" default:"id"`
	// KeyType is the declared key type: auto, int or string.
	KeyType string `mapstructure:"key_type" default:"auto"`
	// Coerce allows digit strings and integers to match each other.
	Coerce bool `mapstructure:"coerce" default:"false"`
	// Operations lists the permitted operations, e.g. "insert,update".
	Operations string `mapstructure:"operations" default:"all"`
	// IDColumn is the identifier column of every synced table.
	IDColumn string `mapstructure:"id_column" default:"id"`
	// Tables maps entities to table names: "users:app_users,posts:app_posts".
	Tables string `mapstructure:"tables" default:""`
}

// TableMap parses Tables.
func (c Config) TableMap() (map[string]string, error) {
	return ParsePairs(c.Tables)
}

// ParsePairs parses a comma separated list of "key:value" pairs.
func ParsePairs(s string) (map[string]string, error) {
	pairs := make(map[string]string)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, value, ok := strings.Cut(item, ":")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid pair %q, want key:value", item)
		}
		pairs[key] = value
	}
	return pairs, nil
}
