package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/bkclothing/bk-site/service/logger"
)

// ErrorAs reports whether err, or any error in its chain, is of type T.
func ErrorAs[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// FindFile finds a file relative to the working directory
// by searching outer directories up to the search depth.
// Mostly for testing purposes.
func FindFile(f string, searchDepth int) (string, error) {
	if _, err := os.Stat(f); err == nil {
		return f, nil
	}

	for i := 0; i < searchDepth; i++ {
		f = filepath.Join("..", f)
		if _, err := os.Stat(f); err == nil {
			return f, nil
		}
	}

	return "", fmt.Errorf("could not find file '%s' in path", f)
}

// VarNotSetTo panics if an environment variable is not set or set to `emptyVal`.
func VarNotSetTo(envVar, emptyVal string) {
	setTo := viper.GetString(envVar)
	if setTo == emptyVal || setTo == "" {
		panic(fmt.Sprintf("%s must be set", envVar))
	}
}

// InDocker returns true if the service is running as a container.
func InDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

// ResolveEnvFile finds the appropriate env file to use for the service.
func ResolveEnvFile(service string, env string) string {
	format := "app-%s-%s.yaml"
	if InDocker() {
		return fmt.Sprintf(format, "docker", service)
	}

	switch env {
	case "local", "dev", "prod":
		return fmt.Sprintf(format, env, service)
	}

	return fmt.Sprintf(format, "local", service)
}

// LoadEnvFile configures the environment with the configured input file, if one can be found.
func LoadEnvFile(fileName string) {
	if viper.GetString("ENV") != "local" {
		logger.For(nil).Info("running in non-local environment, skipping environment configuration")
		return
	}

	// Tests can run from directories deeper in the source tree, so we need to search parent directories to find this config file
	path, err := FindFile(filepath.Join("_local", fileName), 5)
	if err != nil {
		logger.For(nil).Infof("no local env file %s found, using defaults and environment", fileName)
		return
	}

	logger.For(nil).Infof("configuring environment with settings from %s", path)
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Sprintf("error reading viper config: %s", err))
	}
}
