package sdojsd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config consolidates settings for building, validating and shipping the vocabulary.
type Config struct {
	Schema     SchemaConfig     `json:"schema" mapstructure:"schema"`
	Validation ValidationConfig `json:"validation" mapstructure:"validation"`
	Output     OutputConfig     `json:"output" mapstructure:"output"`
	Catalog    CatalogConfig    `json:"catalog" mapstructure:"catalog"`
	Publish    PublishConfig    `json:"publish" mapstructure:"publish"`
	Export     ExportConfig     `json:"export" mapstructure:"export"`
	Watch      WatchConfig      `json:"watch" mapstructure:"watch"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// SchemaConfig controls where fragments are loaded from.
type SchemaConfig struct {
	Directory       string `json:"directory" mapstructure:"directory"`
	MetaDirectory   string `json:"metaDirectory" mapstructure:"metaDirectory"`
	Extension       string `json:"extension" mapstructure:"extension"`
	UseEmbedded     bool   `json:"useEmbedded" mapstructure:"useEmbedded"`
	ReadConcurrency int    `json:"readConcurrency" mapstructure:"readConcurrency"`
}

// ValidationConfig contains document validation settings
type ValidationConfig struct {
	RootType            string `json:"rootType" mapstructure:"rootType"`
	DocumentConcurrency int    `json:"documentConcurrency" mapstructure:"documentConcurrency"`
	CheckFragments      bool   `json:"checkFragments" mapstructure:"checkFragments"`
}

// OutputConfig names the generated artifacts.
type OutputConfig struct {
	Directory          string `json:"directory" mapstructure:"directory"`
	JSONLDFile         string `json:"jsonldFile" mapstructure:"jsonldFile"`
	TypeScriptFile     string `json:"typescriptFile" mapstructure:"typescriptFile"`
	JSDocFile          string `json:"jsdocFile" mapstructure:"jsdocFile"`
	ManifestFile       string `json:"manifestFile" mapstructure:"manifestFile"`
	Indent             string `json:"indent" mapstructure:"indent"`
	TypeScriptBaseType string `json:"typescriptBaseType" mapstructure:"typescriptBaseType"`
	TypeScriptImport   string `json:"typescriptImport" mapstructure:"typescriptImport"`
}

// CatalogConfig contains database connection settings for the vocabulary catalog
type CatalogConfig struct {
	Enabled        bool          `json:"enabled" mapstructure:"enabled"`
	Host           string        `json:"host" mapstructure:"host"`
	Port           int           `json:"port" mapstructure:"port"`
	Database       string        `json:"database" mapstructure:"database"`
	Username       string        `json:"username" mapstructure:"username"`
	Password       string        `json:"password" mapstructure:"password"`
	SSLMode        string        `json:"sslMode" mapstructure:"sslMode"`
	UseIAM         bool          `json:"useIAM" mapstructure:"useIAM"`
	Region         string        `json:"region" mapstructure:"region"`
	TableName      string        `json:"tableName" mapstructure:"tableName"`
	MaxConnections int           `json:"maxConnections" mapstructure:"maxConnections"`
	Timeout        time.Duration `json:"timeout" mapstructure:"timeout"`
}

// PublishConfig contains S3 settings for artifact publishing
type PublishConfig struct {
	Enabled      bool   `json:"enabled" mapstructure:"enabled"`
	Bucket       string `json:"bucket" mapstructure:"bucket"`
	Prefix       string `json:"prefix" mapstructure:"prefix"`
	Region       string `json:"region" mapstructure:"region"`
	Endpoint     string `json:"endpoint" mapstructure:"endpoint"`
	AccessKey    string `json:"accessKey" mapstructure:"accessKey"`
	SecretKey    string `json:"secretKey" mapstructure:"secretKey"`
	UsePathStyle bool   `json:"usePathStyle" mapstructure:"usePathStyle"`
}

// ExportConfig contains Parquet export settings
type ExportConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	DuckDBPath  string `json:"duckdbPath" mapstructure:"duckdbPath"` // empty = in-memory
	ParquetFile string `json:"parquetFile" mapstructure:"parquetFile"`
	// 0 leaves the DuckDB default in place
	MemoryLimitMB int `json:"memoryLimitMB" mapstructure:"memoryLimitMB"`
	Threads       int `json:"threads" mapstructure:"threads"`
}

// WatchConfig contains watch mode settings
type WatchConfig struct {
	Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Schema: SchemaConfig{
			Directory:       "vocab/schema",
			MetaDirectory:   "vocab/meta",
			Extension:       ".jsd",
			UseEmbedded:     true,
			ReadConcurrency: 8,
		},
		Validation: ValidationConfig{
			RootType:            RootClassName,
			DocumentConcurrency: 4,
			CheckFragments:      true,
		},
		Output: OutputConfig{
			Directory:          "dist",
			JSONLDFile:         "schemaorg.jsonld",
			TypeScriptFile:     "schemaorg.d.ts",
			JSDocFile:          "schemaorg.typedef.js",
			ManifestFile:       "manifest.json",
			Indent:             "\t",
			TypeScriptBaseType: "JSONLDObject",
			TypeScriptImport:   "@chharvey/requirejson",
		},
		Catalog: CatalogConfig{
			Host:           "localhost",
			Port:           5432,
			Database:       "sdojsd",
			SSLMode:        "disable",
			TableName:      "vocabulary_nodes",
			MaxConnections: 4,
			Timeout:        30 * time.Second,
		},
		Publish: PublishConfig{
			Prefix: "schemaorg",
			Region: "us-east-1",
		},
		Export: ExportConfig{
			ParquetFile: "vocabulary.parquet",
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Schema.Extension, ".") {
		return &ConfigError{Field: "schema.extension", Message: "must start with '.'"}
	}
	if c.Schema.ReadConcurrency <= 0 {
		return &ConfigError{Field: "schema.readConcurrency", Message: "must be greater than 0"}
	}
	if c.Validation.RootType == "" {
		return &ConfigError{Field: "validation.rootType", Message: "must not be empty"}
	}
	if c.Validation.DocumentConcurrency <= 0 {
		return &ConfigError{Field: "validation.documentConcurrency", Message: "must be greater than 0"}
	}
	if c.Output.JSONLDFile == "" || c.Output.TypeScriptFile == "" || c.Output.JSDocFile == "" || c.Output.ManifestFile == "" {
		return &ConfigError{Field: "output", Message: "artifact file names must not be empty"}
	}
	if c.Catalog.Enabled {
		if c.Catalog.MaxConnections <= 0 {
			return &ConfigError{Field: "catalog.maxConnections", Message: "must be greater than 0"}
		}
		if c.Catalog.TableName == "" {
			return &ConfigError{Field: "catalog.tableName", Message: "must not be empty"}
		}
		if c.Catalog.UseIAM && c.Catalog.Region == "" {
			return &ConfigError{Field: "catalog.region", Message: "required when useIAM is set"}
		}
	}
	if c.Publish.Enabled && c.Publish.Bucket == "" {
		return &ConfigError{Field: "publish.bucket", Message: "required when publishing is enabled"}
	}
	if c.Export.MemoryLimitMB < 0 || c.Export.Threads < 0 {
		return &ConfigError{Field: "export", Message: "memoryLimitMB and threads must not be negative"}
	}
	if c.Watch.Debounce < 0 {
		return &ConfigError{Field: "watch.debounce", Message: "must not be negative"}
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be json or console"}
	}
	return nil
}

// LoadConfig reads configuration from defaults, an optional file and SDOJSD_*
// environment variables, in increasing precedence. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
			v.SetConfigType(ext)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SDOJSD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	return v
}

// setDefaults registers every key so that AutomaticEnv can see it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("schema.directory", d.Schema.Directory)
	v.SetDefault("schema.metaDirectory", d.Schema.MetaDirectory)
	v.SetDefault("schema.extension", d.Schema.Extension)
	v.SetDefault("schema.useEmbedded", d.Schema.UseEmbedded)
	v.SetDefault("schema.readConcurrency", d.Schema.ReadConcurrency)

	v.SetDefault("validation.rootType", d.Validation.RootType)
	v.SetDefault("validation.documentConcurrency", d.Validation.DocumentConcurrency)
	v.SetDefault("validation.checkFragments", d.Validation.CheckFragments)

	v.SetDefault("output.directory", d.Output.Directory)
	v.SetDefault("output.jsonldFile", d.Output.JSONLDFile)
	v.SetDefault("output.typescriptFile", d.Output.TypeScriptFile)
	v.SetDefault("output.jsdocFile", d.Output.JSDocFile)
	v.SetDefault("output.manifestFile", d.Output.ManifestFile)
	v.SetDefault("output.indent", d.Output.Indent)
	v.SetDefault("output.typescriptBaseType", d.Output.TypeScriptBaseType)
	v.SetDefault("output.typescriptImport", d.Output.TypeScriptImport)

	v.SetDefault("catalog.enabled", d.Catalog.Enabled)
	v.SetDefault("catalog.host", d.Catalog.Host)
	v.SetDefault("catalog.port", d.Catalog.Port)
	v.SetDefault("catalog.database", d.Catalog.Database)
	v.SetDefault("catalog.username", d.Catalog.Username)
	v.SetDefault("catalog.password", d.Catalog.Password)
	v.SetDefault("catalog.sslMode", d.Catalog.SSLMode)
	v.SetDefault("catalog.useIAM", d.Catalog.UseIAM)
	v.SetDefault("catalog.region", d.Catalog.Region)
	v.SetDefault("catalog.tableName", d.Catalog.TableName)
	v.SetDefault("catalog.maxConnections", d.Catalog.MaxConnections)
	v.SetDefault("catalog.timeout", d.Catalog.Timeout)

	v.SetDefault("publish.enabled", d.Publish.Enabled)
	v.SetDefault("publish.bucket", d.Publish.Bucket)
	v.SetDefault("publish.prefix", d.Publish.Prefix)
	v.SetDefault("publish.region", d.Publish.Region)
	v.SetDefault("publish.endpoint", d.Publish.Endpoint)
	v.SetDefault("publish.accessKey", d.Publish.AccessKey)
	v.SetDefault("publish.secretKey", d.Publish.SecretKey)
	v.SetDefault("publish.usePathStyle", d.Publish.UsePathStyle)

	v.SetDefault("export.enabled", d.Export.Enabled)
	v.SetDefault("export.duckdbPath", d.Export.DuckDBPath)
	v.SetDefault("export.parquetFile", d.Export.ParquetFile)
	v.SetDefault("export.memoryLimitMB", d.Export.MemoryLimitMB)
	v.SetDefault("export.threads", d.Export.Threads)

	v.SetDefault("watch.debounce", d.Watch.Debounce)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}
