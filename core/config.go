package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string
		DebugAddress    string // expvar; disabled when empty
		ShutdownTimeout time.Duration
		AllowOrigins    []string
		DisableReqLogs  bool
	}

	BackendConfig struct {
		Driver        string // pocketbase | memory
		URL           string
		AdminIdentity string
		AdminPassword string
		HealthRetries int
		HealthDelay   time.Duration
		Timeout       time.Duration
	}

	DateSourceConfig struct {
		Provider string // worldtime | system
		URL      string
		Timezone string
		Timeout  time.Duration
	}

	LogConfig struct {
		File     string
		MaxBytes int64
	}

	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string

		Server     ServerConfig
		Backend    BackendConfig
		DateSource DateSourceConfig
		Log        LogConfig

		RollbarToken     string
		SendgridApiKey   string
		GoogleApiKey     string
		TestEmail        string
		NotifySubmitters bool
		FrontendBaseURL  string
		defaultFromEmail string
		defaultFromName  string
	}
)

// NewConfig reads the configuration from the environment, optional .env files and defaults.
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	loadDotEnv(env)

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v, env)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// keep the variable names the deployment already uses
	_ = v.BindEnv("backend.url", "POCKETBASE_URL")
	_ = v.BindEnv("backend.adminIdentity", "POCKETBASE_ADMIN_EMAIL")
	_ = v.BindEnv("backend.adminPassword", "POCKETBASE_ADMIN_PASSWORD")
	_ = v.BindEnv("googleApiKey", "GOOGLE_API_KEY")
	_ = v.BindEnv("testEmail", "TEST_EMAIL")
	_ = v.BindEnv("rollbarToken", "ROLLBAR_TOKEN")
	_ = v.BindEnv("sendgridApiKey", "SENDGRID_API_KEY")

	return &Config{
		Env:      env,
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		AppName:  v.GetString("appName"),
		Build:    v.GetString("build"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugAddress:    v.GetString("server.debugAddress"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			AllowOrigins:    v.GetStringSlice("server.allowOrigins"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Backend: BackendConfig{
			Driver:        strings.ToLower(v.GetString("backend.driver")),
			URL:           strings.TrimRight(v.GetString("backend.url"), "/"),
			AdminIdentity: v.GetString("backend.adminIdentity"),
			AdminPassword: v.GetString("backend.adminPassword"),
			HealthRetries: v.GetInt("backend.healthRetries"),
			HealthDelay:   v.GetDuration("backend.healthDelay"),
			Timeout:       v.GetDuration("backend.timeout"),
		},
		DateSource: DateSourceConfig{
			Provider: strings.ToLower(v.GetString("dateSource.provider")),
			URL:      strings.TrimRight(v.GetString("dateSource.url"), "/"),
			Timezone: v.GetString("dateSource.timezone"),
			Timeout:  v.GetDuration("dateSource.timeout"),
		},
		Log: LogConfig{
			File:     v.GetString("log.file"),
			MaxBytes: v.GetInt64("log.maxBytes"),
		},
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		GoogleApiKey:     v.GetString("googleApiKey"),
		TestEmail:        v.GetString("testEmail"),
		NotifySubmitters: v.GetBool("notify.submitters"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		defaultFromName:  v.GetString("defaultFromName"),
	}
}

func setDefaults(v *viper.Viper, env string) {
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Milestone Reporting")
	v.SetDefault("build", "dev")
	v.SetDefault("frontendBaseURL", "http://localhost:5000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("defaultFromName", "CSIT QA")
	v.SetDefault("notify.submitters", false)

	v.SetDefault("server.address", ":5000")
	v.SetDefault("server.debugAddress", "")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.allowOrigins", []string{"*"})
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("backend.driver", "pocketbase")
	v.SetDefault("backend.url", "http://127.0.0.1:8090")
	v.SetDefault("backend.adminIdentity", "")
	v.SetDefault("backend.adminPassword", "")
	v.SetDefault("backend.healthRetries", 10)
	v.SetDefault("backend.healthDelay", 10*time.Second)
	v.SetDefault("backend.timeout", 0*time.Second) // net/http default: none

	v.SetDefault("dateSource.provider", "worldtime")
	v.SetDefault("dateSource.url", "https://worldtimeapi.org")
	v.SetDefault("dateSource.timezone", "Australia/Melbourne")
	v.SetDefault("dateSource.timeout", 0*time.Second)

	v.SetDefault("log.file", "logs.txt")
	v.SetDefault("log.maxBytes", int64(100000))

	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("googleApiKey", "")
	v.SetDefault("testEmail", "")
}

// loadDotEnv loads config/.env.<env> and secrets.env if they exist. Missing files are ignored.
func loadDotEnv(env string) {
	paths := []string{
		filepath.Join("config", ".env."+strings.ToLower(env)),
		"secrets.env",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				log.Fatalf("config.godotenv(%s): %v", p, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", p, err)
		}
	}
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.defaultFromName, Address: c.defaultFromEmail}
}

// NewTestConfig returns a Config suitable for tests: in-memory backend, no outbound services.
func NewTestConfig() *Config {
	return &Config{
		Env:      "TEST",
		TestMode: true,
		AppName:  "Milestone Reporting",
		Build:    "test",
		Server: ServerConfig{
			ShutdownTimeout: time.Second,
			AllowOrigins:    []string{"*"},
			DisableReqLogs:  true,
		},
		Backend: BackendConfig{
			Driver:        "memory",
			AdminIdentity: "admin@test.local",
			AdminPassword: "secret",
			HealthRetries: 1,
			HealthDelay:   time.Millisecond,
		},
		DateSource: DateSourceConfig{
			Provider: "system",
			Timezone: "Australia/Melbourne",
		},
		TestEmail:        "qa@test.local",
		FrontendBaseURL:  "http://localhost:5000",
		defaultFromEmail: "noreply@test.local",
		defaultFromName:  "CSIT QA",
	}
}
