package server

import (
	"context"
	"net/http"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/bkclothing/bk-site/env"
	"github.com/bkclothing/bk-site/middleware"
	"github.com/bkclothing/bk-site/service/emails"
	"github.com/bkclothing/bk-site/service/gallery"
	"github.com/bkclothing/bk-site/service/logger"
	"github.com/bkclothing/bk-site/service/mediamapper"
	"github.com/bkclothing/bk-site/service/redis"
	sentryutil "github.com/bkclothing/bk-site/service/sentry"
	"github.com/bkclothing/bk-site/service/tracing"
	"github.com/bkclothing/bk-site/util"
	"github.com/bkclothing/bk-site/validate"
)

const devAdminPassword = "TEST_ADMIN_PASSWORD"

// Init initializes the server
func Init() {
	setDefaults()

	logger.InitWithGCPDefaults()
	initSentry()

	router := CoreInit(gallery.NewStoreFromEnv(), emails.NewSenderFromEnv())

	http.Handle("/", router)
}

// CoreInit initializes core server functionality. This is abstracted
// so the test server can also utilize it
func CoreInit(store *gallery.Store, sender emails.Sender) *gin.Engine {
	logger.For(nil).Info("initializing server...")

	if env.GetString("ENV") != "production" {
		gin.SetMode(gin.DebugMode)
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Trace outgoing HTTP requests
	http.DefaultTransport = tracing.NewTracingTransport(http.DefaultTransport, true)
	http.DefaultClient = &http.Client{Transport: http.DefaultTransport}

	router := gin.New()
	router.Use(gin.Logger(), middleware.Sentry(true), middleware.Tracing(), middleware.HandleCORS(), middleware.ErrLogger())

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		logger.For(nil).Info("registering validation")
		validate.RegisterCustomValidators(v)
	}

	return handlersInit(router, store, sender, newContactLimiter(), mediamapper.NewMediaMapperFromEnv())
}

// newContactLimiter keeps its buckets in redis when REDIS_URL is set, so every instance shares them.
func newContactLimiter() *middleware.KeyRateLimiter {
	var cache *redis.Cache
	if env.IsSet("REDIS_URL") {
		cache = redis.NewCache(redis.RateLimitersCache)
	}

	window := time.Duration(env.GetInt("CONTACT_RATE_WINDOW_SECS")) * time.Second
	return middleware.NewKeyRateLimiter(context.Background(), cache, "contact", int64(env.GetInt("CONTACT_RATE_LIMIT")), window)
}

func setDefaults() {
	viper.SetDefault("ENV", "local")
	viper.SetDefault("PORT", 3000)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("ADMIN_PASSWORD", devAdminPassword)
	viper.SetDefault("SITE_URL", "https://bkclothing.lk")
	viper.SetDefault("GALLERY_PATH", gallery.DefaultFilePath)
	viper.SetDefault("GALLERY_SEED_PATH", gallery.DefaultFilePath)
	viper.SetDefault("GALLERY_KV_KEY", gallery.DefaultKey)
	viper.SetDefault("KV_REST_API_URL", "")
	viper.SetDefault("KV_REST_API_TOKEN", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_PASS", "")
	viper.SetDefault("SENDGRID_API_KEY", "")
	viper.SetDefault("FROM_EMAIL", "")
	viper.SetDefault("CONTACT_TO_EMAIL", "")
	viper.SetDefault("CONTACT_AUTOREPLY", false)
	viper.SetDefault("CONTACT_RATE_LIMIT", 5)
	viper.SetDefault("CONTACT_RATE_WINDOW_SECS", 600)
	viper.SetDefault("IMGIX_DOMAIN", "")
	viper.SetDefault("IMGIX_SECRET", "")
	viper.SetDefault("SENTRY_DSN", "")
	viper.SetDefault("SENTRY_TRACES_SAMPLE_RATE", 0.2)
	viper.SetDefault("VERSION", "")

	viper.AutomaticEnv()

	if viper.GetString("ENV") != "local" {
		logger.For(nil).Info("running in non-local environment, skipping environment configuration")
	} else {
		envFile := util.ResolveEnvFile("server", viper.GetString("ENV"))
		util.LoadEnvFile(envFile)
	}

	if viper.GetString("ENV") != "local" {
		util.VarNotSetTo("ADMIN_PASSWORD", devAdminPassword)
		util.VarNotSetTo("SENTRY_DSN", "")
	}
	if env.IsSet("IMGIX_DOMAIN") {
		util.VarNotSetTo("IMGIX_SECRET", "")
	}
}

func initSentry() {
	if viper.GetString("ENV") == "local" {
		logger.For(nil).Info("skipping sentry init")
		return
	}

	logger.For(nil).Info("initializing sentry...")

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              viper.GetString("SENTRY_DSN"),
		Environment:      viper.GetString("ENV"),
		TracesSampleRate: viper.GetFloat64("SENTRY_TRACES_SAMPLE_RATE"),
		Release:          viper.GetString("VERSION"),
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			event = sentryutil.ScrubEventHeaders(event, hint)
			event = sentryutil.UpdateErrorFingerprints(event, hint)
			return event
		},
	})

	if err != nil {
		logger.For(nil).Fatalf("failed to start sentry: %s", err)
	}
}
