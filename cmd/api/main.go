package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/voucher-console/internal/application/deletion"
	"github.com/voucher-console/internal/application/otp"
	"github.com/voucher-console/internal/application/voucher"
	"github.com/voucher-console/internal/config"
	"github.com/voucher-console/internal/infrastructure/backend"
	"github.com/voucher-console/internal/infrastructure/dynamo"
	"github.com/voucher-console/internal/infrastructure/google"
	jwtinfra "github.com/voucher-console/internal/infrastructure/jwt"
	"github.com/voucher-console/internal/infrastructure/memory"
	redisstore "github.com/voucher-console/internal/infrastructure/redis"
	s3infra "github.com/voucher-console/internal/infrastructure/s3"
	"github.com/voucher-console/internal/infrastructure/smtp"
	"github.com/voucher-console/internal/infrastructure/sns"
	"github.com/voucher-console/internal/pkg/codehash"
	"github.com/voucher-console/internal/pkg/token"
	transporthttp "github.com/voucher-console/internal/transport/http"
	"github.com/voucher-console/internal/transport/http/handler"
	"github.com/voucher-console/internal/transport/http/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("otp store: %v", err)
	}

	secret := []byte(cfg.OTPHashSecret)
	if len(secret) == 0 {
		if secret, err = token.NewSecret(32); err != nil {
			log.Fatalf("otp hash secret: %v", err)
		}
		if cfg.OTPStore != config.StoreMemory {
			log.Printf("WARN: OTP_HASH_SECRET not set; codes issued by other instances will not verify here")
		}
	}
	hasher := codehash.New(secret)

	// Token verifiers (optional: auth is off unless one is configured).
	var verifiers []middleware.TokenVerifier
	if cfg.JWTPublicKeyPath != "" {
		p, err := jwtinfra.NewProvider(cfg)
		if err != nil {
			log.Fatalf("jwt provider: %v", err)
		}
		verifiers = append(verifiers, p)
	}
	if cfg.GoogleClientID != "" {
		verifiers = append(verifiers, google.NewVerifier(cfg.GoogleClientID, cfg.AdminEmails))
	}
	if len(verifiers) == 0 && cfg.OTPBindTokenEmail {
		log.Printf("WARN: OTP_BIND_TOKEN_EMAIL has no effect without JWT_PUBLIC_KEY_PATH or GOOGLE_CLIENT_ID")
	}

	// Deletion archive (optional).
	var archiver deletion.Archiver
	if cfg.S3ArchiveBucket != "" {
		s3Client, err := s3infra.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("s3: %v", err)
		}
		archiver = s3infra.NewArchive(s3Client, cfg.S3ArchiveBucket)
	}

	// Operator alerts (optional).
	var alerter handler.Alerter
	if cfg.SNSAlertTopicARN != "" {
		snsClient, err := sns.NewClient(ctx, cfg)
		if err != nil {
			log.Printf("WARN: SNS alerts not available: %v", err)
		} else {
			alerter = sns.NewAlerter(snsClient, cfg.SNSAlertTopicARN)
		}
	}

	backendClient := backend.NewClient(cfg)
	verifier := otp.NewVerifier(store, hasher)

	deps := &transporthttp.Deps{
		Issuer:         otp.NewIssuer(store, smtp.NewMailer(cfg), hasher, cfg.OTPTTL),
		Deletion:       deletion.NewService(verifier, deletion.NewGateway(backendClient), archiver),
		Vouchers:       voucher.NewService(backendClient),
		Alerter:        alerter,
		TokenVerifiers: verifiers,
	}
	if cfg.BackendAPIURL == "" {
		slog.Error("BACKEND_API_URL is not set; backend calls will fail", "alert", true)
	}

	router := transporthttp.NewRouter(ctx, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.BackendTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, otp_store=%s)", cfg.AppPort, cfg.AppEnv, cfg.OTPStore)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func newStore(ctx context.Context, cfg *config.Config) (otp.Store, error) {
	switch cfg.OTPStore {
	case config.StoreMemory:
		return memory.NewOTPStore(), nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return redisstore.NewOTPStore(rdb), nil
	case config.StoreDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTableOTP)
		return dynamo.NewOTPStore(client, cfg.DynamoTableOTP), nil
	}
	return nil, fmt.Errorf("unknown OTP_STORE %q", cfg.OTPStore)
}
