package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileVar names an env file that takes precedence over the --env flag.
const EnvFileVar = "PARTYPLAN_ENV_FILE"

// EnvLoader loads a .env file into the process environment.
// Variables already exported by the process keep their values.
type EnvLoader struct {
	value       *string
	defaultPath string
	out         io.Writer
}

// AddEnvFlag registers an --env flag and returns an EnvLoader.
func AddEnvFlag(fs *flag.FlagSet, defaultPath, description string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	if defaultPath == "" {
		defaultPath = ".env"
	}
	if description == "" {
		description = "Path to the .env file"
	}

	value := fs.String("env", defaultPath, description)
	return &EnvLoader{
		value:       value,
		defaultPath: defaultPath,
		out:         os.Stderr,
	}
}

// Load applies the first readable candidate: $PARTYPLAN_ENV_FILE, the --env path, its basename,
// then the default path. It returns the path it loaded.
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}

	candidates := l.candidates()
	for _, path := range candidates {
		values, err := godotenv.Read(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				l.printf("Warning: failed to read %s: %v\n", path, err)
			}
			continue
		}
		applied := applyUnset(values)
		l.printf("Loaded environment from %s (%d of %d variables applied)\n", path, applied, len(values))
		return path, nil
	}

	return "", fmt.Errorf("no env file found (tried %s)", strings.Join(candidates, ", "))
}

func (l *EnvLoader) candidates() []string {
	requested := ""
	if l.value != nil {
		requested = strings.TrimSpace(*l.value)
	}
	if requested == "" {
		requested = l.defaultPath
	}

	ordered := []string{
		strings.TrimSpace(os.Getenv(EnvFileVar)),
		requested,
		filepath.Base(requested),
		l.defaultPath,
	}

	seen := make(map[string]struct{}, len(ordered))
	out := make([]string, 0, len(ordered))
	for _, path := range ordered {
		if path == "" || path == "." {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	return out
}

func applyUnset(values map[string]string) int {
	applied := 0
	for key, value := range values {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err == nil {
			applied++
		}
	}
	return applied
}

func (l *EnvLoader) printf(format string, args ...any) {
	if l.out == nil {
		return
	}
	fmt.Fprintf(l.out, format, args...)
}
