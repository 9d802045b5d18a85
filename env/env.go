package env

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/bkclothing/bk-site/service/logger"
)

var validators = map[string][]string{}

var v = validator.New()

var validatorsMu = &sync.Mutex{}

// RegisterValidation attaches validator tags to an env var. Violations are logged whenever the var is read.
func RegisterValidation(name string, tags ...string) {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	validators[name] = dedupe(append(validators[name], tags...))
}

func validate(name string) {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	for _, tag := range validators[name] {
		err := v.Var(viper.GetString(name), tag)
		if err != nil {
			logger.For(context.Background()).Errorf("invalid env var: %s, tag: %s, err: %s", name, tag, err.Error())
		}
	}
}

func GetString(name string) string {
	validate(name)
	return viper.GetString(name)
}

func GetInt(name string) int {
	validate(name)
	return viper.GetInt(name)
}

func GetBool(name string) bool {
	validate(name)
	return viper.GetBool(name)
}

func GetFloat64(name string) float64 {
	validate(name)
	return viper.GetFloat64(name)
}

// IsSet reports whether the var has a non-empty value.
func IsSet(name string) bool {
	return viper.GetString(name) != ""
}

func dedupe(src []string) []string {
	result := src[:0]

	seen := make(map[string]bool)
	for _, x := range src {
		if !seen[x] {
			result = append(result, x)
			seen[x] = true
		}
	}
	return result
}
