package main

import (
	"context"
	"log"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/services"

	"github.com/robfig/cron/v3"
	"github.com/samber/do"
)

type ExpiryJob struct {
	container *do.Injector
}

func NewExpiryJob(container *do.Injector) *ExpiryJob {
	return &ExpiryJob{container}
}

// Start schedules the nightly expiry sweep plus the reminder pass. The
// schedule and the kill switch live in the config table so operators can
// change them without a deploy.
func (j *ExpiryJob) Start(cronRunner *cron.Cron) {
	ctx := context.Background()

	serviceConfig, err := do.Invoke[*services.ServiceConfig](j.container)
	if err != nil {
		log.Println(err)
		return
	}

	schedule, _ := serviceConfig.GetStringConfig(ctx, services.CONFIG_EXPIRY_SWEEP_CRON, services.DEFAULT_EXPIRY_SWEEP_CRON)
	if schedule == "" {
		schedule = services.DEFAULT_EXPIRY_SWEEP_CRON
	}

	_, err = cronRunner.AddFunc(schedule, j.runScheduledTask)
	log.Println("Expiry cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", schedule, err)
}

func (j *ExpiryJob) runScheduledTask() {
	ctx := context.Background()

	serviceConfig, err := do.Invoke[*services.ServiceConfig](j.container)
	if err != nil {
		log.Println(err)
		return
	}

	enabled, _ := serviceConfig.GetStringConfig(ctx, services.CONFIG_EXPIRY_SWEEP_ENABLED, "false")
	if enabled != "true" {
		log.Println("Expiry sweep disabled, skipping")
		return
	}

	serviceExpiry, err := do.Invoke[*services.ServiceExpiry](j.container)
	if err != nil {
		log.Println(err)
		return
	}

	log.Println("Start expiry sweep ...")
	if _, err := serviceExpiry.SweepAll(ctx); err != nil {
		log.Println(err)
	}

	if err := serviceExpiry.SendReminders(ctx); err != nil {
		log.Println(err)
	}
}
