package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Database DatabaseConfig
	Vision   VisionConfig
	Matching MatchingConfig
	Camera   CameraConfig
	SIS      SISConfig
	School   SchoolConfig
	Web      WebConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL (empty = in-memory demo store)
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type VisionConfig struct {
	URL          string // face embedding server, defaults to http://localhost:8000
	Model        string // model name for reference only
	Dim          int    // descriptor dimension (default 128)
	MaxFrameSize int    // frames are downscaled to fit this many pixels per side (default 1280)
}

type MatchingConfig struct {
	// DistanceThreshold is the maximum Euclidean distance for a probe to be
	// labeled with an enrolled student. Defaults to 0.6.
	DistanceThreshold float64
}

type CameraConfig struct {
	SnapshotURL string // IP camera JPEG snapshot endpoint (optional)
	Username    string
	Password    string
}

// GetPassword returns the camera password, falling back to the _FILE variant
// for docker secrets.
func (c *CameraConfig) GetPassword() string {
	if c.Password != "" {
		return c.Password
	}
	return readSecretFile(os.Getenv("CAMERA_PASSWORD_FILE"))
}

type SISConfig struct {
	DatabaseURL string // MariaDB DSN of the school information system (e.g., sis:sis@tcp(mariadb:3306)/sis?parseTime=true)
}

type SchoolConfig struct {
	Name string
}

type WebConfig struct {
	// AllowedOrigins receive CORS headers in addition to localhost origins.
	AllowedOrigins []string
	// PushCamera makes every session read frames uploaded to its frames
	// endpoint instead of the IP camera.
	PushCamera bool
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated environment variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func readSecretFile(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted env
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(data), "\r\n")
}

func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Vision: VisionConfig{
			URL:          os.Getenv("VISION_URL"),
			Model:        os.Getenv("VISION_MODEL"),
			Dim:          envInt("VISION_DIM", 128),
			MaxFrameSize: envInt("VISION_MAX_FRAME_SIZE", 1280),
		},
		Matching: MatchingConfig{
			DistanceThreshold: envFloat("MATCH_DISTANCE_THRESHOLD", 0.6),
		},
		Camera: CameraConfig{
			SnapshotURL: os.Getenv("CAMERA_SNAPSHOT_URL"),
			Username:    os.Getenv("CAMERA_USERNAME"),
			Password:    os.Getenv("CAMERA_PASSWORD"),
		},
		SIS: SISConfig{
			DatabaseURL: os.Getenv("SIS_DATABASE_URL"),
		},
		School: SchoolConfig{
			Name: envString("SCHOOL_NAME", "School"),
		},
		Web: WebConfig{
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
			PushCamera:     os.Getenv("CAMERA_SNAPSHOT_URL") == "" || os.Getenv("WEB_PUSH_CAMERA") == "true",
		},
	}
}
