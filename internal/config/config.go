package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Host           string
	Port           int
	AllowedOrigins []string
	MaxUploadBytes int64
	ImageSize      uint

	// in-process models
	OnnxLibraryPath     string
	DiseaseModelPath    string
	DiseaseMetadataPath string
	CropModelPath       string
	CropMetadataPath    string

	// remote model serving
	ServingURL          string
	ServingTimeout      time.Duration
	ServingReadyTimeout time.Duration
}

// loadDotenv reads each file on its own so a missing one does not stop the
// rest. godotenv never overrides a set variable, so earlier files win.
func loadDotenv(files ...string) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Unable to read env file", "file", f, "err", err)
		}
	}
}

// Load reads .env files if present and then the environment. Missing keys
// keep their defaults; port 0 means the command picks its own.
func Load() (*Config, error) {
	loadDotenv(".env.local", ".env")

	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "production"),
		Host:                getEnv("HOST", "localhost"),
		AllowedOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		OnnxLibraryPath:     os.Getenv("ONNXRUNTIME_LIB"),
		DiseaseModelPath:    getEnv("DISEASE_MODEL_PATH", "models/disease/model.onnx"),
		DiseaseMetadataPath: getEnv("DISEASE_METADATA_PATH", "models/disease/model_metadata.json"),
		CropModelPath:       getEnv("CROP_MODEL_PATH", "models/crop/model.onnx"),
		CropMetadataPath:    getEnv("CROP_METADATA_PATH", "models/crop/model_metadata.json"),
		ServingURL:          getEnv("SERVING_URL", "http://localhost:8501/v1/models/krishiVue:predict"),
	}

	var err error
	if cfg.Port, err = getInt("PORT", 0); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes, err = getInt64("MAX_UPLOAD_BYTES", 0); err != nil {
		return nil, err
	}
	size, err := getInt("IMAGE_SIZE", 0)
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("IMAGE_SIZE must not be negative, got %d", size)
	}
	cfg.ImageSize = uint(size)
	if cfg.ServingTimeout, err = getDuration("SERVING_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ServingReadyTimeout, err = getDuration("SERVING_READY_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
