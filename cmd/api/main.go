package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-consult-auth/internal/application/credential"
	"github.com/go-consult-auth/internal/application/otp"
	"github.com/go-consult-auth/internal/application/profile"
	"github.com/go-consult-auth/internal/application/session"
	"github.com/go-consult-auth/internal/application/signup"
	"github.com/go-consult-auth/internal/config"
	"github.com/go-consult-auth/internal/domain"
	"github.com/go-consult-auth/internal/infrastructure/blobstore"
	"github.com/go-consult-auth/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-consult-auth/internal/infrastructure/jwt"
	"github.com/go-consult-auth/internal/infrastructure/kafka"
	s3infra "github.com/go-consult-auth/internal/infrastructure/s3"
	"github.com/go-consult-auth/internal/infrastructure/smtp"
	"github.com/go-consult-auth/internal/infrastructure/sns"
	pkgdevice "github.com/go-consult-auth/internal/pkg/device"
	transporthttp "github.com/go-consult-auth/internal/transport/http"
	"github.com/joho/godotenv"
)

type eventSink interface {
	Publish(ctx context.Context, e domain.AuthEvent)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	if cfg.JWTExpiry <= cfg.SessionTTL {
		log.Printf("WARN: JWT_EXPIRY_DAYS (%s) does not outlive SESSION_TTL (%s); bootstrap cannot fall back to an expired cache record", cfg.JWTExpiry, cfg.SessionTTL)
	}

	// Cancelled on SIGINT/SIGTERM; in-flight session operations stop with it.
	base, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(base, cfg)
	if err != nil {
		log.Fatalf("dynamodb: %v", err)
	}
	dynamo.Bootstrap(base, dynamoClient, cfg.DynamoTables)

	endUsers := dynamo.NewEndUserRepo(dynamoClient, cfg.DynamoTables.EndUsers)
	providers := dynamo.NewProviderRepo(dynamoClient, cfg.DynamoTables.Providers)

	// Device-local state: cached session records and remote-session tokens.
	blobs, closeBlobs, err := openBlobStore(base, cfg)
	if err != nil {
		log.Fatalf("session cache: %v", err)
	}
	defer closeBlobs()

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	authority := credential.NewAuthority(credential.AuthorityDeps{
		Credentials: dynamo.NewCredentialRepo(dynamoClient, cfg.DynamoTables.Credentials),
		Sessions:    dynamo.NewRemoteSessionRepo(dynamoClient, cfg.DynamoTables.RemoteSessions),
		Tokens:      jwtProvider,
		Slots:       blobs,
	})

	var events eventSink
	if len(cfg.KafkaBrokers) > 0 {
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := pub.Close(); err != nil {
				slog.Warn("failed to flush auth events", "err", err)
			}
		}()
		events = pub
	} else {
		log.Println("KAFKA_BROKERS not set, auth events are not published")
	}

	notifier, err := newNotifier(cfg)
	if err != nil {
		log.Fatalf("notifier: %v", err)
	}
	otpSvc := otp.NewService(otp.ServiceDeps{
		Store:           dynamo.NewChallengeRepo(dynamoClient, cfg.DynamoTables.OTPChallenges),
		Notifier:        notifier,
		Events:          events,
		TTL:             cfg.OTPTTL,
		DispatchTimeout: cfg.OTPDispatchTimeout,
	})

	resolver := profile.NewResolver(profile.EndUsers(endUsers), profile.Providers(providers))
	registry := session.NewRegistry(func(deviceID string) *session.Reconciler {
		return session.NewReconciler(session.ReconcilerDeps{
			DeviceID:    deviceID,
			Credentials: authority.ForDevice(deviceID),
			Resolver:    resolver,
			Cache:       session.NewCache(blobs, pkgdevice.SessionKey(deviceID), cfg.SessionTTL, nil),
			Events:      events,
			Base:        base,
		})
	})

	deps := &transporthttp.Deps{
		Sessions: registry,
		SignUp: signup.NewService(signup.ServiceDeps{
			Credentials: authority,
			EndUsers:    endUsers,
			Providers:   providers,
		}),
		OTP:      otpSvc,
		Profiles: profile.NewService(profile.ServiceDeps{EndUsers: endUsers, Providers: providers}),
	}

	router := transporthttp.NewRouter(base, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-base.Done()

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	otpSvc.Wait()
	log.Println("Server stopped")
}

// openBlobStore selects the session cache backend and seals it when a key is
// configured. The returned func releases the backend.
func openBlobStore(ctx context.Context, cfg *config.Config) (blobstore.Store, func(), error) {
	var (
		store   blobstore.Store
		release = func() {}
	)
	switch cfg.SessionCacheBackend {
	case "sqlite":
		db, err := blobstore.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store = db
		release = func() {
			if err := db.Close(); err != nil {
				slog.Warn("failed to close session cache", "err", err)
			}
		}
	case "redis":
		client, err := blobstore.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		store = blobstore.NewRedis(client, 0)
		release = func() { _ = client.Close() }
	case "s3":
		store = s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName, cfg.S3Prefix)
	case "memory":
		log.Println("WARN: in-memory session cache, sessions do not survive a restart")
		store = blobstore.NewMemory()
	default:
		return nil, nil, fmt.Errorf("unknown SESSION_CACHE_BACKEND %q", cfg.SessionCacheBackend)
	}

	if cfg.SessionCacheKey == "" {
		return store, release, nil
	}
	sealed, err := blobstore.NewSealed(store, cfg.SessionCacheKey)
	if err != nil {
		release()
		return nil, nil, err
	}
	return sealed, release, nil
}

func newNotifier(cfg *config.Config) (otp.Notifier, error) {
	switch cfg.Notifier {
	case "sns":
		n, err := sns.NewChallengeNotifier(cfg)
		if err != nil {
			return nil, err
		}
		return n, nil
	case "smtp":
		return smtp.NewChallengeNotifier(smtp.NewMailer(cfg), cfg.OTPTTL), nil
	}
	return nil, fmt.Errorf("unknown NOTIFIER %q", cfg.Notifier)
}
