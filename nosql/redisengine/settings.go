package redisengine

import (
	"net"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/polystore-db/polystore-go/nosql"
)

const defaultAddress = "localhost:6379"

// OptionsFromSettings maps a settings bag onto Redis client options.
//
// Recognized keys: "host" (plus "host-1", "host-2", ...) for the addresses,
// "port" appended to addresses given without one, "user", "password", and
// "database" for the numeric Redis database to select.
func OptionsFromSettings(settings nosql.Settings) *redis.UniversalOptions {
	options := &redis.UniversalOptions{
		Addrs: addressesFrom(settings),
	}

	if user, ok := settings.GetString(nosql.SettingUser); ok {
		options.Username = user
	}

	if password, ok := settings.GetString(nosql.SettingPassword); ok {
		options.Password = password
	}

	if database, ok := settings.GetInt(nosql.SettingDatabase); ok {
		options.DB = database
	}

	return options
}

func addressesFrom(settings nosql.Settings) []string {
	hosts := settings.Hosts()
	if len(hosts) == 0 {
		return []string{defaultAddress}
	}

	port, hasPort := settings.GetInt(nosql.SettingPort)

	addresses := make([]string, 0, len(hosts))

	for _, host := range hosts {
		if hasPort && !strings.Contains(host, ":") {
			host = net.JoinHostPort(host, strconv.Itoa(port))
		}

		addresses = append(addresses, host)
	}

	return addresses
}
