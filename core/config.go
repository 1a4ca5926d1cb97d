package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridAPIKey   string
		RollbarToken     string

		Server   ServerConfig
		Database DatabaseConfig
		KVStore  KVStoreConfig
		Finance  FinanceConfig
		Linkage  LinkageConfig
		Admins   []AdminAccount
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		DisableRequestLogs        bool
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// KVStoreConfig selects the backend of the key/value store: "memory", "redis" or "database".
	KVStoreConfig struct {
		Backend       string
		RedisAddress  string
		RedisPassword string
		RedisDB       int
	}

	FinanceConfig struct {
		LocalCurrency string
		RateURL       string
		RateTimeout   time.Duration
		FallbackRate  float64
	}

	LinkageConfig struct {
		WritePause     time.Duration
		NameSimilarity float64
	}

	// AdminAccount is an account allowed to sign in to the API.
	AdminAccount struct {
		Email        string
		PasswordHash string // bcrypt
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

// Admin returns the configured admin account matching email.
func (conf *Config) Admin(email string) (AdminAccount, bool) {
	email = CleanString(email, true /* lower */)
	for _, adm := range conf.Admins {
		if CleanString(adm.Email, true /* lower */) == email {
			return adm, true
		}
	}
	return AdminAccount{}, false
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Bolsa")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("defaultFromName", "Bolsa")
	v.SetDefault("sendgridAPIKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("admins", "") // email:bcrypthash,email:bcrypthash

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableRequestLogs", false)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "bolsa")
	v.SetDefault("database.user", "bolsa")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("kvstore.backend", "database")
	v.SetDefault("kvstore.redisAddress", "localhost:6379")
	v.SetDefault("kvstore.redisPassword", "")
	v.SetDefault("kvstore.redisDB", 0)

	v.SetDefault("finance.localCurrency", "MZN")
	v.SetDefault("finance.rateURL", "https://open.er-api.com/v6/latest/USD")
	v.SetDefault("finance.rateTimeout", 8*time.Second)
	v.SetDefault("finance.fallbackRate", 63.6)

	v.SetDefault("linkage.writePause", 500*time.Millisecond)
	v.SetDefault("linkage.nameSimilarity", 0.9)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:             env,
		Build:           v.GetString("build"),
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		AppName:         v.GetString("appName"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("defaultFromName"),
			Address: v.GetString("defaultFromEmail"),
		},
		SendgridAPIKey: v.GetString("sendgridAPIKey"),
		RollbarToken:   v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			DisableRequestLogs:        v.GetBool("server.disableRequestLogs"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		KVStore: KVStoreConfig{
			Backend:       v.GetString("kvstore.backend"),
			RedisAddress:  v.GetString("kvstore.redisAddress"),
			RedisPassword: v.GetString("kvstore.redisPassword"),
			RedisDB:       v.GetInt("kvstore.redisDB"),
		},
		Finance: FinanceConfig{
			LocalCurrency: strings.ToUpper(v.GetString("finance.localCurrency")),
			RateURL:       v.GetString("finance.rateURL"),
			RateTimeout:   v.GetDuration("finance.rateTimeout"),
			FallbackRate:  v.GetFloat64("finance.fallbackRate"),
		},
		Linkage: LinkageConfig{
			WritePause:     v.GetDuration("linkage.writePause"),
			NameSimilarity: v.GetFloat64("linkage.nameSimilarity"),
		},
		Admins: parseAdmins(v.GetString("admins")),
	}
}

// parseAdmins reads "email:hash,email:hash". bcrypt hashes never contain ',' or ':'.
func parseAdmins(raw string) []AdminAccount {
	admins := make([]AdminAccount, 0)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			log.Print(fmt.Errorf("config.parseAdmins: ignoring malformed entry %q", entry))
			continue
		}
		admins = append(admins, AdminAccount{Email: CleanString(parts[0], true /* lower */), PasswordHash: parts[1]})
	}
	return admins
}
