package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
)

const (
	DefaultOCRBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	DefaultOCRModel   = "doubao-1-5-thinking-vision-pro-250428"
	DefaultWorkers    = 4
	DefaultCSVName    = "rename_mapping.csv"
)

// Config holds the settings read from the environment
type Config struct {
	DataDir         string
	OCR             OCRConfig
	CaseInsensitive bool
}

// OCRConfig selects and configures the recognizer
type OCRConfig struct {
	APIKey  string // TAGREN_OCR_API_KEY, falling back to ARK_API_KEY
	BaseURL string // TAGREN_OCR_BASE_URL
	Model   string // TAGREN_OCR_MODEL
	Command string // TAGREN_OCR_COMMAND; when set, an external command is used instead of the API
}

// LoadDotEnv loads variables from .env files without overriding the
// environment. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load reads the configuration from the environment
func Load() *Config {
	return &Config{
		DataDir: DataDir(),
		OCR: OCRConfig{
			APIKey:  getEnv("TAGREN_OCR_API_KEY", os.Getenv("ARK_API_KEY")),
			BaseURL: getEnv("TAGREN_OCR_BASE_URL", DefaultOCRBaseURL),
			Model:   getEnv("TAGREN_OCR_MODEL", DefaultOCRModel),
			Command: getEnv("TAGREN_OCR_COMMAND", ""),
		},
		CaseInsensitive: getEnvBool("TAGREN_CASE_INSENSITIVE", DefaultCaseInsensitive()),
	}
}

// DataDir returns the directory holding the journal and run locks:
// TAGREN_DATA_DIR, else $XDG_DATA_HOME/tagren, else ~/.local/share/tagren.
func DataDir() string {
	if env := os.Getenv("TAGREN_DATA_DIR"); env != "" {
		if expanded, err := homedir.Expand(env); err == nil {
			return expanded
		}
		return env
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := homedir.Dir()
		if err != nil {
			return filepath.Join(os.TempDir(), "tagren")
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "tagren")
}

// DefaultCaseInsensitive is the name-comparison assumption for the host:
// case-folded on Windows and macOS, exact elsewhere.
func DefaultCaseInsensitive() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
