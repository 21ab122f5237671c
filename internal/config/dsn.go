package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// buildDSN assembles a go-sql-driver MySQL DSN from structured fields.
func buildDSN(db *DatabaseConfig) string {
	host := db.Host
	if host == "" {
		host = "localhost"
	}
	port := db.Port
	if port <= 0 {
		port = 3306
	}
	user := db.User
	if user == "" {
		user = "root"
	}
	name := db.Name
	if name == "" {
		name = "tracktide"
	}
	charset := db.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	loc := db.Loc
	if loc == "" {
		loc = "Local"
	}

	cred := user
	if db.Password != "" {
		cred += ":" + db.Password
	}

	params := []string{
		"charset=" + charset,
		"parseTime=True",
		"loc=" + url.QueryEscape(loc),
	}
	extra := make([]string, 0, len(db.Params))
	for k, v := range db.Params {
		extra = append(extra, fmt.Sprintf("%s=%s", url.QueryEscape(k), url.QueryEscape(v)))
	}
	sort.Strings(extra)
	params = append(params, extra...)

	return fmt.Sprintf("%s@tcp(%s:%d)/%s?%s", cred, host, port, name, strings.Join(params, "&"))
}
