package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Backend names accepted in configuration.
const (
	SignerS3       = "s3"
	SignerMinio    = "minio"
	AuditDynamoDB  = "dynamodb"
	AuditMongo     = "mongo"
	defaultAddress = ":8080"
)

// ErrMissingRequired is returned when a required setting is empty.
var ErrMissingRequired = errors.New("missing required configuration")

// Config holds all configuration for the grant handlers.
// Values are read by Viper from an optional config file and the environment.
type Config struct {
	FilesBucket string         `mapstructure:"files_bucket"`
	AuditTable  string         `mapstructure:"audit_table"`
	Signer      SignerConfig   `mapstructure:"signer"`
	S3          S3Config       `mapstructure:"s3"`
	Audit       AuditConfig    `mapstructure:"audit"`
	Database    DatabaseConfig `mapstructure:"database"`
	Server      ServerConfig   `mapstructure:"server"`
	JWT         JWTConfig      `mapstructure:"jwt"`
	Log         LogConfig      `mapstructure:"log"`
}

type SignerConfig struct {
	Backend string `mapstructure:"backend"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// AuditConfig selects the audit sink. Region applies to DynamoDB only; empty
// means the SDK default chain (AWS_REGION on Lambda).
type AuditConfig struct {
	Backend string `mapstructure:"backend"`
	Region  string `mapstructure:"region"`
}

// DatabaseConfig is only read when the audit backend is mongo.
type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// JWTConfig is used by the local gateway emulator only.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// LoadConfig reads config.yaml from path (if present) and the environment.
// Nested keys map to upper-case variables with '.' replaced by '_',
// e.g. s3.region -> S3_REGION.
func LoadConfig(path string) (Config, error) {
	var config Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// Every key needs a default so Unmarshal picks up its env override.
	v.SetDefault("files_bucket", "")
	v.SetDefault("audit_table", "")
	v.SetDefault("signer.backend", SignerS3)
	v.SetDefault("s3.endpoint", "")
	// No region default: AWS_REGION from the runtime must win.
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("audit.backend", AuditDynamoDB)
	v.SetDefault("audit.region", "")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "file_grants")
	v.SetDefault("server.address", defaultAddress)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate checks required keys and backend names.
func (c Config) Validate() error {
	if c.FilesBucket == "" {
		return fmt.Errorf("%w: FILES_BUCKET", ErrMissingRequired)
	}
	if c.AuditTable == "" {
		return fmt.Errorf("%w: AUDIT_TABLE", ErrMissingRequired)
	}
	switch c.Signer.Backend {
	case SignerS3:
	case SignerMinio:
		if c.S3.Endpoint == "" {
			return fmt.Errorf("%w: S3_ENDPOINT (minio signer)", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("unknown signer backend %q", c.Signer.Backend)
	}
	switch c.Audit.Backend {
	case AuditDynamoDB, AuditMongo:
	default:
		return fmt.Errorf("unknown audit backend %q", c.Audit.Backend)
	}
	return nil
}
