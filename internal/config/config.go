package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	ReconnectPolicyResume = "resume"
	ReconnectPolicyNone   = "none"
)

var (
	ErrInvalidRounds          = errors.New("default rounds must be within 1..max-rounds")
	ErrInvalidGracePeriod     = errors.New("grace period must be positive")
	ErrUnknownReconnectPolicy = errors.New("unknown reconnect policy")
	ErrInvalidPingPeriod      = errors.New("ping period must be shorter than pong wait")
)

type Config struct {
	LogLevel          string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort        string    `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis             Redis     `yaml:"redis"`
	SQLiteStoragePath string    `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH"`
	JWTSecretKey      string    `yaml:"jwt-secret-key" env:"JWT_SECRET_KEY"`
	Game              Game      `yaml:"game"`
	WebSocket         WebSocket `yaml:"websocket"`
}

type Redis struct {
	Enabled bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	RoomTTL time.Duration `yaml:"room-ttl" env:"REDIS_ROOM_TTL" env-default:"24h"`
}

type Game struct {
	GracePeriod     time.Duration `yaml:"grace-period" env:"GAME_GRACE_PERIOD" env-default:"5s"`
	MaxRounds       int           `yaml:"max-rounds" env:"GAME_MAX_ROUNDS" env-default:"9"`
	DefaultRounds   int           `yaml:"default-rounds" env:"GAME_DEFAULT_ROUNDS" env-default:"3"`
	ReconnectPolicy string        `yaml:"reconnect-policy" env:"GAME_RECONNECT_POLICY" env-default:"resume"`
	HostTokenTTL    time.Duration `yaml:"host-token-ttl" env:"GAME_HOST_TOKEN_TTL" env-default:"1h"`
}

type WebSocket struct {
	PingPeriod time.Duration `yaml:"ping-period" env:"WS_PING_PERIOD" env-default:"54s"`
	PongWait   time.Duration `yaml:"pong-wait" env:"WS_PONG_WAIT" env-default:"60s"`
	WriteWait  time.Duration `yaml:"write-wait" env:"WS_WRITE_WAIT" env-default:"10s"`
	SendBuffer int           `yaml:"send-buffer" env:"WS_SEND_BUFFER" env-default:"256"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err := config.Validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	return config
}

func (that *Config) Validate() error {
	if that.Game.MaxRounds < 1 || that.Game.DefaultRounds < 1 || that.Game.DefaultRounds > that.Game.MaxRounds {
		return fmt.Errorf("%w: default %d, max %d", ErrInvalidRounds, that.Game.DefaultRounds, that.Game.MaxRounds)
	}

	if that.Game.GracePeriod <= 0 {
		return ErrInvalidGracePeriod
	}

	switch that.Game.ReconnectPolicy {
	case ReconnectPolicyResume, ReconnectPolicyNone:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReconnectPolicy, that.Game.ReconnectPolicy)
	}

	if that.WebSocket.PingPeriod >= that.WebSocket.PongWait {
		return ErrInvalidPingPeriod
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
