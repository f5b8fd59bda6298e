package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Validate performs business-rule validation on the loaded configuration
// and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		problems = append(problems, fmt.Sprintf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret)))
	}
	if c.Auth.SessionTTL <= 0 {
		problems = append(problems, "auth.session_ttl must be > 0")
	}
	if c.Auth.ResetTokenTTL <= 0 {
		problems = append(problems, "auth.reset_token_ttl must be > 0")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	first := strings.TrimSpace(c.Diners.First)
	second := strings.TrimSpace(c.Diners.Second)
	if first == "" || second == "" {
		problems = append(problems, "diners.first and diners.second are required")
	} else if strings.EqualFold(first, second) {
		problems = append(problems, "diners.first and diners.second must differ")
	}

	if c.Journal.OperationTimeout <= 0 {
		problems = append(problems, "journal.operation_timeout must be > 0")
	}
	if c.Journal.MaxPhotos < 1 {
		problems = append(problems, fmt.Sprintf("journal.max_photos must be >= 1 (got %d)", c.Journal.MaxPhotos))
	}
	if tz := c.Journal.TimeZone; tz != "" && !strings.EqualFold(tz, "local") {
		if _, err := time.LoadLocation(tz); err != nil {
			problems = append(problems, fmt.Sprintf("journal.time_zone: %v", err))
		}
	}

	if c.Storage.MaxImageEdge == 0 {
		problems = append(problems, "storage.max_image_edge must be > 0")
	}
	if c.Storage.JPEGQuality < 1 || c.Storage.JPEGQuality > 100 {
		problems = append(problems, "storage.jpeg_quality must be between 1 and 100")
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be json or text (got %q)", c.Log.Format))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
