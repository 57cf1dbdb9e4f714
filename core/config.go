package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // census timezone on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type (
	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		WorkDir          string
		RollbarToken     string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridAPIKey   string

		Server  ServerConfig
		Admin   AdminConfig
		Storage StorageConfig
		Census  CensusConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	AdminConfig struct {
		Username     string
		Password     string // plain text fallback, only used when PasswordHash is empty
		PasswordHash string // bcrypt
	}

	StorageConfig struct {
		Driver        string
		DSN           string
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		RedisChannel  string
	}

	CensusConfig struct {
		PollInterval     time.Duration
		DraftTTL         time.Duration
		SchoolsFile      string // optional JSON file overriding the bundled registry
		Fallback         string // "empty" | "sample"
		Timezone         string
		NotifyRecipients []mail.Address
	}
)

func (sc ServerConfig) Address() string {
	return sc.Host + ":" + sc.Port
}

// Location returns the census display timezone, UTC when it cannot be loaded.
func (cc CensusConfig) Location() *time.Location {
	loc, err := time.LoadLocation(cc.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NewConfig loads the application configuration from defaults, the optional
// config/.env.<env> file and <ENV>_ prefixed environment variables.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Censo Escolar")
	v.SetDefault("secretKey", "t7#n!q2v@censo-escolar%dev-only$k9w&x4z")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridAPIKey", "")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 8*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 24*time.Hour)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "admin123")
	v.SetDefault("admin.passwordHash", "")

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.dsn", "file:censo.db?_busy_timeout=5000&_txlock=immediate")
	v.SetDefault("storage.redisAddr", "localhost:6379")
	v.SetDefault("storage.redisPassword", "")
	v.SetDefault("storage.redisDB", 0)
	v.SetDefault("storage.redisChannel", "censo:kv")

	v.SetDefault("census.pollInterval", time.Second)
	v.SetDefault("census.draftTTL", 2*time.Hour)
	v.SetDefault("census.schoolsFile", "")
	v.SetDefault("census.fallback", "empty")
	v.SetDefault("census.timezone", "America/Sao_Paulo")
	v.SetDefault("census.notifyRecipients", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("storage.driver", DriverMemory)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		WorkDir:          workDir,
		RollbarToken:     v.GetString("rollbarToken"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		SendgridAPIKey:   v.GetString("sendgridAPIKey"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Port:                      v.GetString("server.port"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Admin: AdminConfig{
			Username:     CleanString(v.GetString("admin.username"), true /* lower */),
			Password:     v.GetString("admin.password"),
			PasswordHash: v.GetString("admin.passwordHash"),
		},
		Storage: StorageConfig{
			Driver:        CleanString(v.GetString("storage.driver"), true /* lower */),
			DSN:           v.GetString("storage.dsn"),
			RedisAddr:     v.GetString("storage.redisAddr"),
			RedisPassword: v.GetString("storage.redisPassword"),
			RedisDB:       v.GetInt("storage.redisDB"),
			RedisChannel:  v.GetString("storage.redisChannel"),
		},
		Census: CensusConfig{
			PollInterval:     v.GetDuration("census.pollInterval"),
			DraftTTL:         v.GetDuration("census.draftTTL"),
			SchoolsFile:      v.GetString("census.schoolsFile"),
			Fallback:         CleanString(v.GetString("census.fallback"), true /* lower */),
			Timezone:         v.GetString("census.timezone"),
			NotifyRecipients: ParseAddressList(v.GetString("census.notifyRecipients")),
		},
	}
	return conf
}
