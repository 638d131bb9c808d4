package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/magiconair/properties"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/mayray"
)

// LegacyConfigFile is read when no config file is given and no config.yaml
// is found. It uses the flat host/port/keystorePath/keystorePassword keys.
const LegacyConfigFile = "config/server.properties"

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for mayray.
type Config struct {
	Env      string         `mapstructure:"env" yaml:"env" validate:"omitempty,oneof=dev development prod production"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	KeyStore KeyStoreConfig `mapstructure:"keystore" yaml:"keystore"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Admin    AdminConfig    `mapstructure:"admin" yaml:"admin"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds the listener and worker pool configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	TLS             string        `mapstructure:"tls" yaml:"tls" validate:"required,tlsstatus"`
	MaxWorkers      int           `mapstructure:"max_workers" yaml:"max_workers" validate:"min=1"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"min=0"`
}

// KeyStoreConfig locates the PKCS#12 keystore used when TLS is on.
type KeyStoreConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	Password string `mapstructure:"password" yaml:"password"`
}

// DownloadConfig holds the downloadable tree and where archives go.
type DownloadConfig struct {
	Root   string `mapstructure:"root" yaml:"root" validate:"required"`
	Layout string `mapstructure:"layout" yaml:"layout" validate:"omitempty,oneof=access meta"`
	ZipDir string `mapstructure:"zip_dir" yaml:"zip_dir" validate:"required"`
}

// AdminConfig holds the metrics listener address. Empty disables it.
type AdminConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" validate:"omitempty,hostname_port"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
}

// TLSEnabled reports whether the server should wrap its listener in TLS.
func (c *Config) TLSEnabled() bool {
	status, err := mayray.ParseTLSStatus(c.Server.TLS)
	return err == nil && status == mayray.TLSOn
}

// ServerConfig builds the startup configuration. The keystore password moves
// into a Secret and is cleared from c.
func (c *Config) ServerConfig() (mayray.ServerConfig, error) {
	status, err := mayray.ParseTLSStatus(c.Server.TLS)
	if err != nil {
		return mayray.ServerConfig{}, fmt.Errorf("server config: %w", err)
	}

	sc := mayray.ServerConfig{
		Host:             c.Server.Host,
		Port:             c.Server.Port,
		TLS:              status,
		KeyStorePath:     c.KeyStore.Path,
		KeyStorePassword: mayray.NewSecret([]byte(c.KeyStore.Password)),
	}
	c.KeyStore.Password = ""

	return sc, nil
}

// Redacted returns a copy with the keystore password masked.
func (c *Config) Redacted() Config {
	out := *c
	if out.KeyStore.Password != "" {
		out.KeyStore.Password = "[redacted]"
	}
	return out
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"host":             "server.host",
	"port":             "server.port",
	"tls":              "server.tls",
	"workers":          "server.max_workers",
	"read-timeout":     "server.read_timeout",
	"shutdown-timeout": "server.shutdown_timeout",
	"keystore":         "keystore.path",
	"download-root":    "download.root",
	"layout":           "download.layout",
	"zip-dir":          "download.zip_dir",
	"admin-addr":       "admin.addr",
	"log-level":        "log.level",
}

// legacyKeys maps the flat keys of server.properties files onto the nested
// layout. Viper lowercases keys on read.
var legacyKeys = map[string]string{
	"host":             "server.host",
	"port":             "server.port",
	"keystorepath":     "keystore.path",
	"keystorepassword": "keystore.password",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8443)
	v.SetDefault("server.tls", "on")
	v.SetDefault("server.max_workers", 8)
	v.SetDefault("server.read_timeout", 0) // 0 means no timeout
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("keystore.path", "")
	v.SetDefault("keystore.password", "")

	v.SetDefault("download.root", "./downloadable")
	v.SetDefault("download.layout", "access")
	v.SetDefault("download.zip_dir", "./zipFiles")

	v.SetDefault("admin.addr", "")

	v.SetDefault("log.level", "info")
}

// translateLegacyKeys merges flat legacy keys into their nested counterparts
// unless the nested key is already set in the file.
func translateLegacyKeys(v *viper.Viper) error {
	merged := map[string]any{}
	for old, key := range legacyKeys {
		if !v.InConfig(old) || v.InConfig(key) {
			continue
		}
		section, name, _ := strings.Cut(key, ".")
		inner, ok := merged[section].(map[string]any)
		if !ok {
			inner = map[string]any{}
			merged[section] = inner
		}
		inner[name] = v.Get(old)
	}

	if len(merged) == 0 {
		return nil
	}
	return v.MergeConfigMap(merged)
}

// propertiesExts are the file extensions read as Java-style properties.
var propertiesExts = map[string]bool{
	".properties": true,
	".props":      true,
	".prop":       true,
}

// readPropertiesFile decodes a properties file into the nested layout viper
// keys its config by: "server.port" becomes server -> port. Values are kept
// as strings and ${...} is not expanded.
func readPropertiesFile(path string) (map[string]any, error) {
	loader := properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}

	out := map[string]any{}
	for _, key := range props.Keys() {
		value, _ := props.Get(key)
		setNested(out, strings.Split(strings.ToLower(key), "."), value)
	}
	return out, nil
}

func setNested(m map[string]any, path []string, value string) {
	for _, name := range path[:len(path)-1] {
		inner, ok := m[name].(map[string]any)
		if !ok {
			inner = map[string]any{}
			m[name] = inner
		}
		m = inner
	}
	m[path[len(path)-1]] = value
}

// mergeConfigFile merges one file into v. Properties files go through the
// properties loader, everything else through viper's own codecs.
func mergeConfigFile(v *viper.Viper, path string) error {
	if !propertiesExts[strings.ToLower(filepath.Ext(path))] {
		v.SetConfigFile(path)
		return v.MergeInConfig()
	}

	values, err := readPropertiesFile(path)
	if err != nil {
		return err
	}
	return v.MergeConfigMap(values)
}

// readConfigFiles reads the given files in order, later ones overriding
// earlier ones. Without files it looks for config.yaml, then the legacy
// properties file. Only the absence of both implicit files is tolerated.
func readConfigFiles(v *viper.Viper, configFiles []string) error {
	for _, cf := range configFiles {
		if err := mergeConfigFile(v, cf); err != nil {
			return fmt.Errorf("read config file %s: %w", cf, err)
		}
	}
	if len(configFiles) > 0 {
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var configNotFound viper.ConfigFileNotFoundError
	if !errors.As(err, &configNotFound) {
		return fmt.Errorf("read config file: %w", err)
	}

	if _, statErr := os.Stat(LegacyConfigFile); statErr != nil {
		return nil
	}
	if err := mergeConfigFile(v, LegacyConfigFile); err != nil {
		return fmt.Errorf("read config file %s: %w", LegacyConfigFile, err)
	}
	return nil
}

// newValidator returns a validator that knows the tlsstatus tag.
func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("tlsstatus", func(fl validator.FieldLevel) bool {
		_, err := mayray.ParseTLSStatus(fl.Field().String())
		return err == nil
	})
	return validate
}

// validate checks struct tags and the rules spanning several fields. Every
// failure is reported, not just the first.
func validate(cfg *Config) error {
	var errs []error

	if err := newValidator().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, fmt.Errorf("%s: failed %q validation (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}

	if cfg.TLSEnabled() && cfg.KeyStore.Path == "" {
		errs = append(errs, errors.New("keystore.path is required when server.tls is on"))
	}

	return errors.Join(errs...)
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if err := readConfigFiles(v, configFiles); err != nil {
		return nil, err
	}
	if err := translateLegacyKeys(v); err != nil {
		return nil, fmt.Errorf("translate legacy keys: %w", err)
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("MAYRAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
