// Package app wires configuration, storage and services into the HTTP server
package app

import (
	"bitwise74/unmask-api/aws"
	"bitwise74/unmask-api/db"
	"bitwise74/unmask-api/internal"
	"bitwise74/unmask-api/internal/flow"
	"bitwise74/unmask-api/internal/quota"
	"bitwise74/unmask-api/internal/service"
	"bitwise74/unmask-api/internal/session"
	"bitwise74/unmask-api/pkg/middleware"
	"bitwise74/unmask-api/pkg/security"
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type App struct {
	Router *gin.Engine
	Deps   *internal.Deps

	cron    *cron.Cron
	closers []func() error
}

// New builds the application from the loaded configuration
func New(ctx context.Context) (*App, error) {
	if err := MakeLogger(viper.GetString("app.log_level")); err != nil {
		return nil, fmt.Errorf("failed to create logger, %w", err)
	}

	a := &App{}

	database, err := db.New(viper.GetString("database.type"), viper.GetString("database.dsn"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	d := &internal.Deps{
		DB:    database,
		Argon: security.New(),
		Quota: quota.New(viper.GetInt("guest.max_detections")),
	}

	sessionTTL := viper.GetDuration("session.ttl")

	var purger service.SessionPurger

	switch viper.GetString("session.store") {
	case "redis":
		rs, err := session.NewRedisStore(ctx, viper.GetString("redis.url"), sessionTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis, %w", err)
		}

		a.closers = append(a.closers, rs.Close)
		d.Sessions = rs
	case "memory":
		ms := session.NewMemoryStore(sessionTTL)
		a.closers = append(a.closers, ms.Close)
		d.Sessions = ms
	default:
		ds := session.NewDBStore(database, sessionTTL)
		purger = ds
		d.Sessions = ds
	}

	switch viper.GetString("storage.type") {
	case "s3":
		client, err := aws.NewS3(ctx, aws.S3Config{
			AccessKey:       viper.GetString("storage.s3.access_key"),
			SecretAccessKey: viper.GetString("storage.s3.secret_access_key"),
			Bucket:          viper.GetString("storage.s3.bucket"),
			Region:          viper.GetString("storage.s3.region"),
			Endpoint:        viper.GetString("storage.s3.endpoint"),
			R2AccountID:     viper.GetString("cloudflare.account_id"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		d.Files = service.NewS3Store(client)
	default:
		ls, err := service.NewLocalStore(viper.GetString("storage.local_dir"))
		if err != nil {
			return nil, err
		}

		d.Files = ls
	}

	var mailer service.Mailer = service.LogMailer{}
	if viper.GetBool("mail.enabled") {
		mailer = service.NewSMTPMailer(service.SMTPConfig{
			Host:     viper.GetString("mail.host"),
			Port:     viper.GetInt("mail.port"),
			Username: viper.GetString("mail.username"),
			Password: viper.GetString("mail.password"),
			Sender:   viper.GetString("mail.sender"),
		})
	} else {
		zap.L().Warn("Mail delivery is disabled, codes will only be logged")
	}

	var classifier service.Classifier = service.HashClassifier{}
	if viper.GetString("classifier.type") == "remote" {
		classifier, err = service.NewRemoteClassifier(ctx,
			viper.GetString("classifier.url"),
			viper.GetStringSlice("classifier.labels"),
			viper.GetDuration("classifier.timeout"),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize classifier, %w", err)
		}
	} else {
		zap.L().Warn("Using the mock classifier, results are not real predictions")
	}

	d.Queue = service.NewClassifyQueue(classifier, viper.GetInt("classifier.workers"), viper.GetInt("classifier.max_jobs"))
	d.Queue.StartWorkerPool()

	d.Flow = &flow.Service{
		DB:      database,
		Argon:   d.Argon,
		Mailer:  mailer,
		Quota:   d.Quota,
		CodeTTL: viper.GetDuration("codes.ttl"),
	}

	d.Detector = &service.Detector{
		DB:      database,
		Files:   d.Files,
		Queue:   d.Queue,
		Quota:   d.Quota,
		MaxSize: viper.GetInt64("upload.max_size"),
		Allowed: lower(viper.GetStringSlice("upload.allowed_types")),
	}

	cleanup := &service.Cleanup{
		DB:             database,
		Files:          d.Files,
		GuestRetention: viper.GetDuration("cleanup.guest_retention"),
	}
	if purger != nil {
		cleanup.Sessions = purger
	}

	a.cron, err = cleanup.Schedule(viper.GetString("cleanup.schedule"))
	if err != nil {
		return nil, fmt.Errorf("failed to schedule cleanup, %w", err)
	}

	a.Deps = d
	a.Router = NewRouter(d, Options{
		SessionSecret: []byte(viper.GetString("session.secret")),
		SessionTTL:    sessionTTL,
		SecureCookies: viper.GetBool("host.ssl.enabled"),
		CORSOrigins:   viper.GetStringSlice("host.cors"),
		RateLimit:     viper.GetInt("security.rate_limit"),
		MaxUploadSize: viper.GetInt64("upload.max_size"),
		Turnstile: middleware.TurnstileConfig{
			Enabled: viper.GetBool("cloudflare.turnstile.enabled"),
			Secret:  viper.GetString("cloudflare.turnstile.secret_token"),
		},
	})

	return a, nil
}

// Close stops background jobs and releases connections
func (a *App) Close() {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}

	for _, c := range a.closers {
		if err := c(); err != nil {
			zap.L().Warn("Failed to close resource", zap.Error(err))
		}
	}

	if a.Deps != nil && a.Deps.DB != nil {
		if sqlDB, err := a.Deps.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}

	zap.L().Sync()
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	}

	return out
}
