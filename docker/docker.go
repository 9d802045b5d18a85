package docker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ory/dockertest"
	"github.com/ory/dockertest/docker"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/bkclothing/bk-site/service/redis"
)

// ErrDockerUnavailable is returned when no docker daemon can be reached. Tests use it to skip
// instead of failing on machines without docker.
var ErrDockerUnavailable = errors.New("docker is not available")

// N.B. This isn't the entire Docker Compose spec...
type ComposeFile struct {
	Version  string             `yaml:"version"`
	Services map[string]Service `yaml:"services"`
}

type Service struct {
	Image       string   `yaml:"image"`
	Ports       []string `yaml:"ports"`
	Environment []string `yaml:"environment"`
	Command     string   `yaml:"command"`
}

func configureContainerCleanup(config *docker.HostConfig) {
	config.AutoRemove = true
	config.RestartPolicy = docker.RestartPolicy{Name: "no"}
}

func waitOnCache(url string) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cache := redis.NewCacheWithURL(url, "", redis.GalleryCache)
		defer cache.Close()

		client, err := cache.Client(ctx)
		if err != nil {
			return err
		}
		return client.Ping(ctx).Err()
	}
}

func loadComposeFile(path string) (f ComposeFile, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}

	err = yaml.Unmarshal(data, &f)
	return f, err
}

func getImageAndVersion(s string) ([]string, error) {
	imgAndVer := strings.Split(s, ":")
	if len(imgAndVer) != 2 {
		return nil, errors.New("no version specified for image")
	}
	return imgAndVer, nil
}

func newPool() (*dockertest.Pool, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDockerUnavailable, err)
	}
	if err := pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDockerUnavailable, err)
	}
	pool.MaxWait = 3 * time.Minute
	return pool, nil
}

// InitRedis starts the redis service described in the compose file and points REDIS_URL at it.
// The returned address is the container's host:port.
func InitRedis(composePath string) (*dockertest.Resource, string, error) {
	pool, err := newPool()
	if err != nil {
		return nil, "", err
	}

	apps, err := loadComposeFile(composePath)
	if err != nil {
		return nil, "", fmt.Errorf("could not load compose file: %w", err)
	}

	svc, ok := apps.Services["redis"]
	if !ok {
		return nil, "", fmt.Errorf("no redis service in %s", composePath)
	}

	imgAndVer, err := getImageAndVersion(svc.Image)
	if err != nil {
		return nil, "", err
	}

	rd, err := pool.RunWithOptions(
		&dockertest.RunOptions{
			Repository: imgAndVer[0],
			Tag:        imgAndVer[1],
			Env:        svc.Environment,
		}, configureContainerCleanup,
	)
	if err != nil {
		return nil, "", fmt.Errorf("could not start redis: %w", err)
	}

	// Patch environment to use container
	addr := rd.GetHostPort("6379/tcp")
	viper.Set("REDIS_URL", addr)

	if err = pool.Retry(waitOnCache(addr)); err != nil {
		rd.Close()
		return nil, "", fmt.Errorf("could not connect to redis: %w", err)
	}

	return rd, addr, nil
}
