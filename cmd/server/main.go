package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/watchparty/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
		usage:        "Server port",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	allowedOrigins = configVar[[]string]{
		envKey:       "SERVER_ALLOWED_ORIGINS",
		flagKey:      "allowed-origins",
		defaultValue: []string{"*"},
		usage:        "Origins allowed to connect, * allows any",
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 50,
		usage:        "Maximum number of members in the room, 0 disables the limit",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "",
		usage:        "Redis host for the room directory, empty disables it",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
)

func bindEnv[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

// splitList accepts both repeated flags and a comma separated env value.
func splitList(values []string) []string {
	var result []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				result = append(result, item)
			}
		}
	}

	return result
}

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, port.usage)
	pflag.String(host.flagKey, host.defaultValue, host.usage)
	pflag.String(logLevel.flagKey, logLevel.defaultValue, logLevel.usage)
	pflag.StringSlice(allowedOrigins.flagKey, allowedOrigins.defaultValue, allowedOrigins.usage)
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, membersLimit.usage)
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, redisPort.usage)
	pflag.String(redisHost.flagKey, redisHost.defaultValue, redisHost.usage)
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, redisPassword.usage)
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	bindEnv(port)
	bindEnv(host)
	bindEnv(logLevel)
	bindEnv(allowedOrigins)
	bindEnv(membersLimit)
	bindEnv(redisPort)
	bindEnv(redisHost)
	bindEnv(redisPassword)

	return &app.AppConfig{
		Host:           viper.GetString(host.flagKey),
		Port:           viper.GetInt(port.flagKey),
		LogLevel:       viper.GetString(logLevel.flagKey),
		AllowedOrigins: splitList(viper.GetStringSlice(allowedOrigins.flagKey)),
		MembersLimit:   viper.GetInt(membersLimit.flagKey),
		RedisHost:      viper.GetString(redisHost.flagKey),
		RedisPort:      viper.GetInt(redisPort.flagKey),
		RedisPassword:  viper.GetString(redisPassword.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
