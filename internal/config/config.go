package config

import (
	"strings"
	"time"

	"eatlog/internal/model"
)

// Config is the root application configuration.
type Config struct {
	DataDir  string         `yaml:"data_dir" env:"EATLOG_DATA_DIR"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Diners   DinersConfig   `yaml:"diners"`
	Journal  JournalConfig  `yaml:"journal"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds SQLite settings. An empty Path resolves to <data_dir>/eatlog.db.
type DatabaseConfig struct {
	Path        string        `yaml:"path"         env:"EATLOG_DB_PATH"`
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"EATLOG_DB_BUSY_TIMEOUT" env-default:"5s"`
}

// StorageConfig holds blob store settings. An empty Dir resolves to <data_dir>/photos.
type StorageConfig struct {
	Dir            string `yaml:"dir"             env:"EATLOG_STORAGE_DIR"`
	PublicBaseURL  string `yaml:"public_base_url" env:"EATLOG_STORAGE_PUBLIC_BASE_URL"`
	PlaceholderURL string `yaml:"placeholder_url" env:"EATLOG_STORAGE_PLACEHOLDER_URL" env-default:"/images/placeholder.jpg"`
	MaxImageEdge   uint   `yaml:"max_image_edge"  env:"EATLOG_STORAGE_MAX_IMAGE_EDGE"  env-default:"2048"`
	JPEGQuality    int    `yaml:"jpeg_quality"    env:"EATLOG_STORAGE_JPEG_QUALITY"    env-default:"85"`
}

// AuthConfig holds identity settings. An empty JWTSecret is replaced by a
// per-installation secret stored in the data directory.
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"      env:"EATLOG_AUTH_JWT_SECRET"`
	Issuer        string        `yaml:"issuer"          env:"EATLOG_AUTH_ISSUER"          env-default:"eatlog"`
	SessionTTL    time.Duration `yaml:"session_ttl"     env:"EATLOG_AUTH_SESSION_TTL"     env-default:"720h"`
	ResetTokenTTL time.Duration `yaml:"reset_token_ttl" env:"EATLOG_AUTH_RESET_TOKEN_TTL" env-default:"1h"`
	BcryptCost    int           `yaml:"bcrypt_cost"     env:"EATLOG_AUTH_BCRYPT_COST"     env-default:"10"`
}

// DinersConfig names the two people who rate experiences.
type DinersConfig struct {
	First  string `yaml:"first"  env:"EATLOG_DINER_FIRST"  env-default:"Brett"`
	Second string `yaml:"second" env:"EATLOG_DINER_SECOND" env-default:"Jean"`
}

// JournalConfig holds journal service settings.
type JournalConfig struct {
	OperationTimeout time.Duration `yaml:"operation_timeout" env:"EATLOG_OPERATION_TIMEOUT" env-default:"30s"`
	MaxPhotos        int           `yaml:"max_photos"        env:"EATLOG_MAX_PHOTOS"        env-default:"5"`
	TimeZone         string        `yaml:"time_zone"         env:"EATLOG_TIME_ZONE"         env-default:"Local"`
}

// LogConfig holds logging settings. File, when set, receives log output instead of stderr.
type LogConfig struct {
	Level  string `yaml:"level"  env:"EATLOG_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"EATLOG_LOG_FORMAT" env-default:"text"`
	File   string `yaml:"file"   env:"EATLOG_LOG_FILE"`
}

// Name returns the configured display name of a diner.
func (d DinersConfig) Name(diner model.Diner) string {
	switch diner {
	case model.DinerFirst:
		return d.First
	case model.DinerSecond:
		return d.Second
	default:
		return ""
	}
}

// SlotFor maps a user display name onto a diner slot.
// ok is false when the name matches neither diner.
func (d DinersConfig) SlotFor(displayName string) (model.Diner, bool) {
	name := strings.TrimSpace(displayName)
	switch {
	case name == "":
		return "", false
	case strings.EqualFold(name, d.First):
		return model.DinerFirst, true
	case strings.EqualFold(name, d.Second):
		return model.DinerSecond, true
	default:
		return "", false
	}
}

// Location returns the time zone used to compute "today".
func (j JournalConfig) Location() *time.Location {
	if j.TimeZone == "" || strings.EqualFold(j.TimeZone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(j.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
