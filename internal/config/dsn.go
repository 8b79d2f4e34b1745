package config

import (
	"net"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DSNValue builds a go-sql-driver/mysql DSN unless one is given verbatim.
func (c DatabaseConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}

	port := c.Port
	if port == 0 {
		port = defaultDBPort
	}

	m := mysql.NewConfig()
	m.User = orDefault(c.User, defaultDBUser)
	m.Passwd = strings.TrimSpace(c.Password)
	m.Net = "tcp"
	m.Addr = net.JoinHostPort(orDefault(c.Host, defaultDBHost), strconv.Itoa(port))
	m.DBName = orDefault(c.Name, defaultDBName)
	m.ParseTime = c.ParseTime
	m.Loc = time.Local
	if loc, err := time.LoadLocation(orDefault(c.Loc, defaultDBLoc)); err == nil {
		m.Loc = loc
	}
	m.Params = map[string]string{"charset": orDefault(c.Charset, defaultDBCharset)}
	for key, value := range c.Params {
		k, v := strings.TrimSpace(key), strings.TrimSpace(value)
		if k != "" && v != "" {
			m.Params[k] = v
		}
	}
	return m.FormatDSN()
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// URLValue returns a go-redis URL, or "" when Redis is not configured.
func (c RedisConfig) URLValue() string {
	if u := strings.TrimSpace(c.URL); u != "" {
		if !strings.Contains(u, "://") {
			return "redis://" + u
		}
		return u
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		return ""
	}
	port := c.Port
	if port == 0 {
		port = defaultRedisPort
	}
	scheme := "redis"
	if c.TLS {
		scheme = "rediss"
	}

	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + strconv.Itoa(c.DB),
	}
	username := strings.TrimSpace(c.Username)
	password := strings.TrimSpace(c.Password)
	if username != "" {
		if password != "" {
			u.User = neturl.UserPassword(username, password)
		} else {
			u.User = neturl.User(username)
		}
	} else if password != "" {
		u.User = neturl.UserPassword("", password)
	}
	return u.String()
}
