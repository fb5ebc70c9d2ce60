package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/syncroom/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	secret = configVar[string]{
		envKey:       "SERVER_SECRET",
		flagKey:      "secret",
		defaultValue: "",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	playlistLimit = configVar[int]{
		envKey:       "SERVER_PLAYLIST_LIMIT",
		flagKey:      "playlist-limit",
		defaultValue: 50,
	}
	chatHistoryLimit = configVar[int]{
		envKey:       "SERVER_CHAT_HISTORY_LIMIT",
		flagKey:      "chat-history-limit",
		defaultValue: 100,
	}
	disconnectedGrace = configVar[time.Duration]{
		envKey:       "SERVER_DISCONNECTED_GRACE",
		flagKey:      "disconnected-grace",
		defaultValue: time.Hour,
	}
	sweepInterval = configVar[time.Duration]{
		envKey:       "SERVER_SWEEP_INTERVAL",
		flagKey:      "sweep-interval",
		defaultValue: 10 * time.Second,
	}
	emptyRoomGrace = configVar[time.Duration]{
		envKey:       "SERVER_EMPTY_ROOM_GRACE",
		flagKey:      "empty-room-grace",
		defaultValue: time.Hour,
	}
	reapInterval = configVar[time.Duration]{
		envKey:       "SERVER_REAP_INTERVAL",
		flagKey:      "reap-interval",
		defaultValue: time.Hour,
	}
	roomTTL = configVar[time.Duration]{
		envKey:       "SERVER_ROOM_TTL",
		flagKey:      "room-ttl",
		defaultValue: 14 * 24 * time.Hour,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(secret.flagKey, secret.defaultValue, "Server secret")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(playlistLimit.flagKey, playlistLimit.defaultValue, "Maximum number of videos in the playlist")
	pflag.Int(chatHistoryLimit.flagKey, chatHistoryLimit.defaultValue, "Maximum number of retained chat messages per room")
	pflag.Duration(disconnectedGrace.flagKey, disconnectedGrace.defaultValue, "How long a disconnected identity stays resolvable")
	pflag.Duration(sweepInterval.flagKey, sweepInterval.defaultValue, "How often disconnected identities are swept")
	pflag.Duration(emptyRoomGrace.flagKey, emptyRoomGrace.defaultValue, "How long an empty room is kept")
	pflag.Duration(reapInterval.flagKey, reapInterval.defaultValue, "How often stale rooms are reaped")
	pflag.Duration(roomTTL.flagKey, roomTTL.defaultValue, "Absolute room lifetime since last activity")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(secret.flagKey, secret.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(playlistLimit.flagKey, playlistLimit.envKey)
	viper.BindEnv(chatHistoryLimit.flagKey, chatHistoryLimit.envKey)
	viper.BindEnv(disconnectedGrace.flagKey, disconnectedGrace.envKey)
	viper.BindEnv(sweepInterval.flagKey, sweepInterval.envKey)
	viper.BindEnv(emptyRoomGrace.flagKey, emptyRoomGrace.envKey)
	viper.BindEnv(reapInterval.flagKey, reapInterval.envKey)
	viper.BindEnv(roomTTL.flagKey, roomTTL.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(secret.flagKey, secret.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(playlistLimit.flagKey, playlistLimit.defaultValue)
	viper.SetDefault(chatHistoryLimit.flagKey, chatHistoryLimit.defaultValue)
	viper.SetDefault(disconnectedGrace.flagKey, disconnectedGrace.defaultValue)
	viper.SetDefault(sweepInterval.flagKey, sweepInterval.defaultValue)
	viper.SetDefault(emptyRoomGrace.flagKey, emptyRoomGrace.defaultValue)
	viper.SetDefault(reapInterval.flagKey, reapInterval.defaultValue)
	viper.SetDefault(roomTTL.flagKey, roomTTL.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	config := &app.AppConfig{
		Secret:            viper.GetString(secret.flagKey),
		Host:              viper.GetString(host.flagKey),
		Port:              viper.GetInt(port.flagKey),
		LogLevel:          viper.GetString(logLevel.flagKey),
		PlaylistLimit:     viper.GetInt(playlistLimit.flagKey),
		ChatHistoryLimit:  viper.GetInt(chatHistoryLimit.flagKey),
		DisconnectedGrace: viper.GetDuration(disconnectedGrace.flagKey),
		SweepInterval:     viper.GetDuration(sweepInterval.flagKey),
		EmptyRoomGrace:    viper.GetDuration(emptyRoomGrace.flagKey),
		ReapInterval:      viper.GetDuration(reapInterval.flagKey),
		RoomTTL:           viper.GetDuration(roomTTL.flagKey),
		RedisPort:         viper.GetInt(redisPort.flagKey),
		RedisHost:         viper.GetString(redisHost.flagKey),
		RedisPassword:     viper.GetString(redisPassword.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
