package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvS3Endpoint  = "XCPACK_S3_ENDPOINT"
	EnvS3Bucket    = "XCPACK_S3_BUCKET"
	EnvS3AccessKey = "XCPACK_S3_ACCESS_KEY"
	EnvS3SecretKey = "XCPACK_S3_SECRET_KEY"
	EnvS3Region    = "XCPACK_S3_REGION"
	EnvS3UseSSL    = "XCPACK_S3_USE_SSL"
	EnvWorkspace   = "XCPACK_WORKSPACE"
)

// LoadEnv loads <root>/.env into the process environment. Variables that
// are already set win, and a missing file is not an error.
func LoadEnv(root string) error {
	err := godotenv.Load(filepath.Join(root, ".env"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides s with the environment as read by getenv.
func (s *Settings) ApplyEnv(getenv func(string) string) {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }
	s.Publish.Endpoint = firstNonEmpty(env(EnvS3Endpoint), s.Publish.Endpoint)
	s.Publish.Bucket = firstNonEmpty(env(EnvS3Bucket), s.Publish.Bucket)
	s.Publish.Region = firstNonEmpty(env(EnvS3Region), s.Publish.Region, "us-east-1")
	s.Publish.AccessKey = env(EnvS3AccessKey)
	s.Publish.SecretKey = env(EnvS3SecretKey)
	if raw := env(EnvS3UseSSL); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			s.Publish.UseSSL = v
		}
	}
	s.Workspace = firstNonEmpty(env(EnvWorkspace), s.Workspace)
}

// Resolve loads the settings and .env of the package at root and applies
// the process environment.
func Resolve(root string) (*Settings, error) {
	if err := LoadEnv(root); err != nil {
		return nil, err
	}
	s, err := read(root)
	if err != nil {
		return nil, err
	}
	s.ApplyEnv(os.Getenv)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", Path(root), err)
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
