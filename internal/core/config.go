package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/dcrodman/rupeepatch/internal/content"
	"github.com/dcrodman/rupeepatch/internal/image"
	"github.com/dcrodman/rupeepatch/internal/patcher"
	"github.com/dcrodman/rupeepatch/internal/rupee"
)

// Config contains all of the configuration options for patching a game
// install and replacing its content.
type Config struct {
	// Path to the game executable (Terraria.exe or the tModLoader build of it).
	ExePath string `mapstructure:"exe_path"`
	// Build variant of the executable. Options: vanilla, tmodloader
	VariantName string `mapstructure:"variant"`
	// Appended to exe_path to name the backup of the unpatched executable.
	BackupSuffix string `mapstructure:"backup_suffix"`
	// Directory holding the files listed in required_files. Defaults to the config directory.
	AppDir string `mapstructure:"app_dir"`
	// Runtime libraries copied next to the executable after patching.
	RequiredFiles []string `mapstructure:"required_files"`
	// Type that holds the replacement functions the patched methods call.
	HookType string `mapstructure:"hook_type"`

	Marker struct {
		// Type that receives the patched marker field.
		Type string `mapstructure:"type"`
		Name string `mapstructure:"name"`
	} `mapstructure:"marker"`

	SupportedVersions struct {
		Vanilla    patcher.VersionRange `mapstructure:"vanilla"`
		TModLoader patcher.VersionRange `mapstructure:"tmodloader"`
	} `mapstructure:"supported_versions"`

	Logging struct {
		// Full path to file to which logs will be written. Blank will write to stderr.
		LogFilePath string `mapstructure:"log_file_path"`
		// Minimum level of a log required to be written. Options: debug, info, warn, error
		LogLevel      string `mapstructure:"log_level"`
		IncludeCaller bool   `mapstructure:"include_caller"`
		// Rotation settings for log_file_path.
		MaxSizeMB  int `mapstructure:"max_size_mb"`
		MaxBackups int `mapstructure:"max_backups"`
	} `mapstructure:"logging"`

	Database struct {
		// Options: sqlite, postgres
		Engine string `mapstructure:"engine"`
		// SQLite database file, relative to the config directory.
		Filename string `mapstructure:"filename"`
		// Hostname of the Postgres database instance.
		Host string `mapstructure:"host"`
		// Port on host on which the Postgres instance is accepting connections.
		Port int `mapstructure:"port"`
		// Name of the database in Postgres.
		Name string `mapstructure:"name"`
		// Username and password of a user with full RW privileges to name.
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		// Set to verify-full if the Postgres instance supports SSL.
		SSLMode string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	Content struct {
		// Directory holding the rupee PNG sprites and WAV sounds.
		AssetsDir string `mapstructure:"assets_dir"`
		// Defaults to BackupContent next to the executable.
		BackupDir string `mapstructure:"backup_dir"`
		// Rupee colour replacing each coin.
		Copper   string `mapstructure:"copper"`
		Silver   string `mapstructure:"silver"`
		Gold     string `mapstructure:"gold"`
		Platinum string `mapstructure:"platinum"`
		// Whether the optional coin items are resprited.
		CoinGun    bool `mapstructure:"coin_gun"`
		LuckyCoin  bool `mapstructure:"lucky_coin"`
		CoinRing   bool `mapstructure:"coin_ring"`
		CoinPortal bool `mapstructure:"coin_portal"`
	} `mapstructure:"content"`

	configDir string
	variant   patcher.Variant
	palette   rupee.Palette
}

const envVarPrefix = "RUPEEPATCH"

func setDefaults(v *viper.Viper) {
	v.SetDefault("exe_path", "")
	v.SetDefault("variant", "vanilla")
	v.SetDefault("backup_suffix", ".bak")
	v.SetDefault("app_dir", "")
	v.SetDefault("required_files", []string{"RupeeReplacer.dll"})
	v.SetDefault("hook_type", patcher.DefaultHookType)
	v.SetDefault("marker.type", "Main")
	v.SetDefault("marker.name", "RupeeReplacerPatched")
	v.SetDefault("supported_versions.vanilla.low", "1.3.5.3")
	v.SetDefault("supported_versions.vanilla.high", "1.3.5.3")
	v.SetDefault("supported_versions.tmodloader.low", "1.3.5.1")
	v.SetDefault("supported_versions.tmodloader.high", "1.3.5.1")
	v.SetDefault("logging.log_level", "info")
	v.SetDefault("logging.log_file_path", "")
	v.SetDefault("logging.include_caller", false)
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("database.engine", "sqlite")
	v.SetDefault("database.filename", "rupeepatch.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "rupeepatch")
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("content.assets_dir", "assets")
	v.SetDefault("content.backup_dir", "")

	s := content.DefaultSettings()
	v.SetDefault("content.copper", s.Palette.Copper.String())
	v.SetDefault("content.silver", s.Palette.Silver.String())
	v.SetDefault("content.gold", s.Palette.Gold.String())
	v.SetDefault("content.platinum", s.Palette.Platinum.String())
	v.SetDefault("content.coin_gun", s.CoinGun)
	v.SetDefault("content.lucky_coin", s.LuckyCoin)
	v.SetDefault("content.coin_ring", s.CoinRing)
	v.SetDefault("content.coin_portal", s.CoinPortal)
}

// LoadConfig reads config.yaml from configPath on top of the defaults. A
// missing config file is not an error; every option can also be set through
// the environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envVarPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "error reading config file")
		}
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, database.host can be set using: <envVarPrefix>_DATABASE_HOST
	for _, k := range v.AllKeys() {
		envVar := envVarPrefix + "_" + strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := v.BindEnv(k, envVar); err != nil {
			return nil, errors.Wrapf(err, "error binding %s to %s", k, envVar)
		}
	}

	config := &Config{configDir: configPath}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config object")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	var err error
	if c.variant, err = patcher.ParseVariant(c.VariantName); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	for _, p := range []struct {
		key  string
		name string
		dst  *rupee.Color
	}{
		{"content.copper", c.Content.Copper, &c.palette.Copper},
		{"content.silver", c.Content.Silver, &c.palette.Silver},
		{"content.gold", c.Content.Gold, &c.palette.Gold},
		{"content.platinum", c.Content.Platinum, &c.palette.Platinum},
	} {
		if *p.dst, err = rupee.ColorByName(p.name); err != nil {
			return errors.Wrapf(err, "invalid config: %s", p.key)
		}
	}
	return nil
}

// QualifiedPath resolves name against the config directory unless it is
// already absolute.
func (c *Config) QualifiedPath(name string) string {
	if filepath.IsAbs(name) || c.configDir == "" {
		return name
	}
	return filepath.Join(c.configDir, name)
}

func (c *Config) Variant() patcher.Variant { return c.variant }

// BackupPath is where the unpatched executable is kept.
func (c *Config) BackupPath() string { return c.ExePath + c.BackupSuffix }

func (c *Config) ExeDir() string { return filepath.Dir(c.ExePath) }

// ContentDir is the game's Content directory next to the executable.
func (c *Config) ContentDir() string { return filepath.Join(c.ExeDir(), "Content") }

// ContentBackupDir is where the original content files are kept.
func (c *Config) ContentBackupDir() string {
	if c.Content.BackupDir != "" {
		return c.QualifiedPath(c.Content.BackupDir)
	}
	return filepath.Join(c.ExeDir(), "BackupContent")
}

// Supported returns the accepted version range of the configured variant.
func (c *Config) Supported() patcher.VersionRange {
	if c.variant == patcher.ModLoader {
		return c.SupportedVersions.TModLoader
	}
	return c.SupportedVersions.Vanilla
}

// ContentSettings returns the configured rupee colours and item toggles.
func (c *Config) ContentSettings() content.Settings {
	return content.Settings{
		Palette:    c.palette,
		CoinGun:    c.Content.CoinGun,
		LuckyCoin:  c.Content.LuckyCoin,
		CoinRing:   c.Content.CoinRing,
		CoinPortal: c.Content.CoinPortal,
	}
}

// PatchOptions returns the options for patching the configured executable.
func (c *Config) PatchOptions() patcher.Options {
	appDir := c.AppDir
	if appDir == "" {
		appDir = c.configDir
	}
	return patcher.Options{
		ExePath:       c.ExePath,
		BackupPath:    c.BackupPath(),
		Variant:       c.variant,
		Marker:        image.Marker{Type: c.Marker.Type, Name: c.Marker.Name},
		HookType:      c.HookType,
		AppDir:        c.QualifiedPath(appDir),
		RequiredFiles: c.RequiredFiles,
		Supported:     c.Supported(),
	}
}

// ContentOptions returns the options for replacing the configured install's content.
func (c *Config) ContentOptions() content.Options {
	return content.Options{
		ContentDir: c.ContentDir(),
		BackupDir:  c.ContentBackupDir(),
		AssetsDir:  c.QualifiedPath(c.Content.AssetsDir),
		Settings:   c.ContentSettings(),
	}
}

const databaseURITemplate = "host=%s port=%d dbname=%s user=%s password=%s sslmode=%s"

// DatabaseURL returns a database URL generated from the provided config values.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		databaseURITemplate,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Username,
		c.Database.Password,
		c.Database.SSLMode,
	)
}
