// Package env looks up configuration values for handlers and hooks.
//
// An Env consults its override table first and the process environment
// second. Overrides hold arbitrary values; the process environment only
// strings.
package env

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Env is an override table layered over os.Getenv.
type Env struct {
	overrides map[string]any
	lookupEnv func(string) (string, bool)
}

// New creates an empty Env backed by the process environment.
func New() *Env {
	return &Env{overrides: make(map[string]any), lookupEnv: os.LookupEnv}
}

// Lookup returns the value for key and whether it was found anywhere.
func (e *Env) Lookup(key string) (any, bool) {
	if v, ok := e.overrides[key]; ok {
		return v, true
	}
	if v, ok := e.lookupEnv(key); ok {
		return v, true
	}
	return nil, false
}

// Get returns the value for key, or nil when it is not set.
func (e *Env) Get(key string) any {
	v, _ := e.Lookup(key)
	return v
}

// GetString returns the value for key formatted as a string.
func (e *Env) GetString(key string) string {
	switch v := e.Get(key).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Set stores an override. It never touches the process environment.
func (e *Env) Set(key string, value any) {
	e.overrides[key] = value
}

// LoadDotenv reads dotenv files into the override table. Later files win
// over earlier ones.
func (e *Env) LoadDotenv(paths ...string) error {
	for _, p := range paths {
		vals, err := godotenv.Read(p)
		if err != nil {
			return fmt.Errorf("load dotenv %s: %w", p, err)
		}
		for k, v := range vals {
			e.overrides[k] = v
		}
	}
	return nil
}
