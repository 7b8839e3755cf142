package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

// Conf is set once by NewConfig at startup; read-only afterwards.
var Conf *Config

type (
	ServerConfig struct {
		Host                      string
		DebugHost                 string
		UploadRoot                string
		BodyLimit                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (default), TEST, QA, PROD
		Build    string
		WorkDir  string

		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

// NewConfig loads the app configuration from `<ENV>_`-prefixed environment
// variables on top of sane defaults. A `config/.env.<env>` file is loaded
// first if it exists (ignored if it does not).
func NewConfig() *Config {
	vip := viper.New()

	// defaults
	vip.SetTypeByDefaultValue(true)
	vip.SetDefault("debug", true)
	vip.SetDefault("build", "dev")
	vip.SetDefault("appName", "Darasa")
	vip.SetDefault("secretKey", "w#05poq3-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$ceg")
	vip.SetDefault("frontendBaseUrl", "http://localhost:8080")
	vip.SetDefault("defaultFromEmail", "noreply@localhost")
	vip.SetDefault("sendgridApiKey", "")
	vip.SetDefault("rollbarToken", "")
	vip.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	vip.SetDefault("server.host", "0.0.0.0:8000")
	vip.SetDefault("server.debugHost", "0.0.0.0:4000")
	vip.SetDefault("server.bodyLimit", "50M")
	vip.SetDefault("server.shutdownTimeout", 5*time.Second)
	vip.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	vip.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	vip.SetDefault("database.engine", "postgres")
	vip.SetDefault("database.name", "darasa")
	vip.SetDefault("database.user", "darasa")
	vip.SetDefault("database.password", "darasa")
	vip.SetDefault("database.adminUser", "")
	vip.SetDefault("database.adminPassword", "")
	vip.SetDefault("database.host", "localhost")
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.disableTls", true)

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	env = strings.ToUpper(env)
	vip.SetEnvPrefix(env)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	vip.AutomaticEnv()

	conf := &Config{
		Debug:            vip.GetBool("debug"),
		TestMode:         env == "TEST",
		Env:              env,
		Build:            vip.GetString("build"),
		WorkDir:          workDir,
		AppName:          vip.GetString("appName"),
		SecretKey:        vip.GetString("secretKey"),
		FrontendBaseURL:  vip.GetString("frontendBaseUrl"),
		DefaultFromEmail: mail.Address{Name: vip.GetString("appName"), Address: vip.GetString("defaultFromEmail")},
		SendgridApiKey:   vip.GetString("sendgridApiKey"),
		RollbarToken:     vip.GetString("rollbarToken"),

		PasswordResetTimeoutDelta: vip.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:                      vip.GetString("server.host"),
			DebugHost:                 vip.GetString("server.debugHost"),
			UploadRoot:                filepath.Join(workDir, "uploads"),
			BodyLimit:                 vip.GetString("server.bodyLimit"),
			ShutdownTimeout:           vip.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        vip.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: vip.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        vip.GetString("database.engine"),
			Name:          vip.GetString("database.name"),
			User:          vip.GetString("database.user"),
			Password:      vip.GetString("database.password"),
			AdminUser:     vip.GetString("database.adminUser"),
			AdminPassword: vip.GetString("database.adminPassword"),
			Host:          vip.GetString("database.host"),
			Port:          vip.GetString("database.port"),
			DisableTLS:    vip.GetBool("database.disableTls"),
		},
	}

	vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.SecretKey, "secretKey"),
		vala.StringNotEmpty(conf.Server.Host, "server.host"),
		vala.StringNotEmpty(conf.Database.Engine, "database.engine"),
		vala.StringNotEmpty(conf.Database.Name, "database.name"),
	).CheckAndPanic()

	Conf = conf
	return conf
}
