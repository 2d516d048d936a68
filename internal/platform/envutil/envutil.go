package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

func lookup(name string, log *logger.Logger) (string, bool) {
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		if log != nil {
			log.Debug("Environment variable not set, using default", "env_var", name)
		}
		return "", false
	}
	return v, true
}

func String(name, def string, log *logger.Logger) string {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	return v
}

func Int(name string, def int, log *logger.Logger) int {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable is not an int, using default", "env_var", name, "default", def, "error", err)
		}
		return def
	}
	return i
}

func Bool(name string, def bool, log *logger.Logger) bool {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	if log != nil {
		log.Warn("Environment variable is not a bool, using default", "env_var", name, "default", def)
	}
	return def
}

func Float(name string, def float64, log *logger.Logger) float64 {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable is not a number, using default", "env_var", name, "default", def, "error", err)
		}
		return def
	}
	return f
}

// Seconds reads an integer number of seconds.
func Seconds(name string, def time.Duration, log *logger.Logger) time.Duration {
	return time.Duration(Int(name, int(def/time.Second), log)) * time.Second
}

// Duration reads a Go duration string ("90s", "1h").
func Duration(name string, def time.Duration, log *logger.Logger) time.Duration {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable is not a duration, using default", "env_var", name, "default", def.String(), "error", err)
		}
		return def
	}
	return d
}

// List splits a comma separated value, dropping empty entries.
func List(name string, def []string, log *logger.Logger) []string {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
