// internal/config/database.go
package config

import (
	"fmt"
)

// DSN builds the libpq keyword string. Sessions run in UTC so order and
// collaboration timestamps compare across hosts.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC application_name=imi-campaigns",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}
