package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/elum-utils/moderate/adapters/ai"
	"github.com/elum-utils/moderate/adapters/logging"
	"github.com/elum-utils/moderate/adapters/strikes"
	"github.com/elum-utils/moderate/api"
	"github.com/elum-utils/moderate/core"
	"github.com/elum-utils/moderate/interfaces"
)

func main() {
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(level)
	}

	threshold := getEnvFloat(logger, "PROFANITY_THRESHOLD", 0.5)
	maxStrikes := getEnvInt(logger, "MAX_STRIKES", strikes.DefaultLimit)

	textAI, err := ai.NewHuggingFaceAdapter(ai.HuggingFaceOptions{
		APIToken: os.Getenv("HF_API_TOKEN"),
		BaseURL:  os.Getenv("HF_BASE_URL"),
		Model:    os.Getenv("MODEL_PATH"),
	})
	if err != nil {
		logger.WithError(err).Fatal("text classifier init failed")
	}
	imageAI, err := ai.NewNSFWAdapter(ai.NSFWOptions{
		APIToken: os.Getenv("HF_API_TOKEN"),
		BaseURL:  os.Getenv("HF_BASE_URL"),
		Model:    os.Getenv("IMAGE_MODEL_PATH"),
	})
	if err != nil {
		logger.WithError(err).Fatal("image classifier init failed")
	}

	var store interfaces.StrikeStore
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.WithError(err).Fatal("redis unreachable")
		}
		cancel()
		store, err = strikes.NewRedisStore(strikes.RedisOptions{
			Client: client,
			Limit:  maxStrikes,
			Window: getEnvDuration(logger, "STRIKE_WINDOW", 0),
		})
		if err != nil {
			logger.WithError(err).Fatal("redis strike store init failed")
		}
		logger.WithField("addr", addr).Info("using redis strike store")
	} else {
		store = strikes.NewMemoryStore(strikes.MemoryOptions{
			Limit:  maxStrikes,
			Window: getEnvDuration(logger, "STRIKE_WINDOW", 0),
		})
	}

	engine := core.New(core.Options{
		Classifier:      textAI,
		ImageClassifier: imageAI,
		Strikes:         store,
		Logger:          logging.NewLogrusAdapter(logger),
		Threshold:       threshold,
		MaxStrikes:      maxStrikes,
		FailOpen:        os.Getenv("FAIL_OPEN") == "true",
	})
	_ = engine.OnBan(func(_ context.Context, e core.Event) error {
		logger.WithFields(logrus.Fields{"actor": e.Actor, "chat": e.ChatID}).Warn("actor banned")
		return nil
	})

	server := api.New(api.Options{
		Core:           engine,
		Logger:         logger,
		MaxUploadBytes: getEnvInt(logger, "MAX_UPLOAD_BYTES", 0),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			logger.WithError(err).Error("shutdown failed")
		}
	}()

	addr := ":" + getEnv("PORT", "8080")
	if err := server.Listen(addr); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(logger *logrus.Logger, key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.WithField(key, v).Warn("invalid float env value, using default")
		return fallback
	}
	return parsed
}

func getEnvInt(logger *logrus.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		logger.WithField(key, v).Warn("invalid int env value, using default")
		return fallback
	}
	return parsed
}

func getEnvDuration(logger *logrus.Logger, key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		logger.WithField(key, v).Warn("invalid duration env value, using default")
		return fallback
	}
	return parsed
}
