package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds defaults for the command line tools. Flags override them.
type Config struct {
	SampleRate    int
	Volume        float64 // 0..1
	DutyCycle     float64 // pulse width, 0.5 = square
	DefaultOctave int     // fallback when a melody header has no o= field
	Library       string  // extra YAML melody library, merged over the built-ins
	ExportDir     string
	Piezo         bool // color the output like a small piezo buzzer
}

// LoadDotEnv reads .env files into the environment without overriding
// variables that are already set. Missing files are not an error.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

func Load() *Config {
	return &Config{
		SampleRate:    getEnvInt("RTTTL_SAMPLE_RATE", 48000),
		Volume:        getEnvFloat("RTTTL_VOLUME", 0.8),
		DutyCycle:     getEnvFloat("RTTTL_DUTY", 0.5),
		DefaultOctave: getEnvInt("RTTTL_DEFAULT_OCTAVE", 6),
		Library:       getEnv("RTTTL_LIBRARY", ""),
		ExportDir:     getEnv("RTTTL_EXPORT_DIR", "out"),
		Piezo:         getEnv("RTTTL_PIEZO", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}
