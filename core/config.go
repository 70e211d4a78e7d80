package core

import (
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
		Env             string
		Build           string
		AppName         string
		Debug           bool
		TestMode        bool
		SecretKey       string
		FrontendBaseURL string
		fromEmail       string

		SendgridApiKey string
		RollbarToken   string

		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Students StudentsConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// StudentsConfig bounds the student ID allocation and creation loops.
	StudentsConfig struct {
		IDFetchLimit      int
		IDMaxAttempts     int
		InsertMaxAttempts int
		SendWelcomeEmail  bool
	}
)

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// DefaultFromEmail is the sender of every outgoing email.
func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.fromEmail}
}

// NewConfig reads the configuration from the environment (optionally pre-loaded from config/.env.<env>).
// Every key can be overridden with an "<ENV>_" prefixed variable, e.g. DEV_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	setDefaults(v, env)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		AppName:                   v.GetString("appName"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           strings.TrimSuffix(v.GetString("frontendBaseURL"), "/"),
		fromEmail:                 v.GetString("defaultFromEmail"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
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
		Students: StudentsConfig{
			IDFetchLimit:      v.GetInt("students.idFetchLimit"),
			IDMaxAttempts:     v.GetInt("students.idMaxAttempts"),
			InsertMaxAttempts: v.GetInt("students.insertMaxAttempts"),
			SendWelcomeEmail:  v.GetBool("students.sendWelcomeEmail"),
		},
	}
}

func setDefaults(v *viper.Viper, env string) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Kulliya")
	v.SetDefault("secretKey", "k9#vx2-l@q!)7zmd$u^r0w+e(4h_tn=1bsc8&yfo%ap5*gj3")
	v.SetDefault("frontendBaseURL", "http://localhost:8080")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "kulliya")
	v.SetDefault("database.user", "kulliya")
	v.SetDefault("database.password", "kulliya")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")

	v.SetDefault("students.idFetchLimit", 10000)
	v.SetDefault("students.idMaxAttempts", 100)
	v.SetDefault("students.insertMaxAttempts", 5)
	v.SetDefault("students.sendWelcomeEmail", true)
}
