package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coachly/config"
	"coachly/internal/database"
	"coachly/internal/jobs"
	"coachly/internal/repository"
	"coachly/internal/router"
	"coachly/internal/service"
	"coachly/pkg/cloudinary"
	"coachly/pkg/mailer"
	"coachly/pkg/payment"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db)

	cloud, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		log.Fatalf("cloudinary: %v", err)
	}

	var provider payment.Provider
	if cfg.Payment.SecretKey != "" {
		provider = payment.NewPayChanguProvider(cfg.Payment.GatewayBaseURL, cfg.Payment.SecretKey)
		log.Printf("[Payment] PayChangu gateway enabled")
	} else {
		provider = payment.NewStubProvider()
		log.Printf("[Payment] no gateway secret configured, using stub provider")
	}

	mail := mailer.New(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.Sender, cfg.Mail.Password)
	if !mail.Enabled() {
		log.Printf("[Mail] notifications disabled: set SMTP_HOST and SMTP_SENDER to enable")
	}

	withdrawalSvc := service.NewWithdrawalService(
		repository.NewWithdrawalRepository(db),
		repository.NewWalletRepository(db),
		provider,
	)
	scheduler := jobs.NewScheduler(withdrawalSvc)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	engine := router.Setup(cfg, db, cloud, provider, mail)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	scheduler.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}
