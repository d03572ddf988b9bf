package main

import (
	"context"
	"time"

	"github.com/artemmm11/SMS-reminder/controller"
	"github.com/artemmm11/SMS-reminder/dao"
	_ "github.com/artemmm11/SMS-reminder/docs"
	"github.com/artemmm11/SMS-reminder/log"
	"github.com/artemmm11/SMS-reminder/ratelimit"
	"github.com/artemmm11/SMS-reminder/scheduler"
	"github.com/artemmm11/SMS-reminder/service"
	"github.com/artemmm11/SMS-reminder/sms"
	"github.com/artemmm11/SMS-reminder/transcribe"
	"github.com/artemmm11/SMS-reminder/util"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// @title Sms reminder HTTP API
// @description Schedules one-shot sms reminders and delivers them at fire time

func main() {
	//.env file is optional
	_ = godotenv.Load()

	log.Init(util.GetEnvAsBool("DEBUG", false))

	httpTimeout := time.Duration(util.GetEnvAsInt("HTTP_TIMEOUT_SEC", 10)) * time.Second

	//create db client
	dbClient, err := dao.Open(util.GetEnv("DB_PATH", "reminders.db"))
	if err != nil {
		log.Fatal(err)
	}

	reminderDao := dao.NewReminderDao(dbClient)

	limiter := ratelimit.NewLimiter(dao.NewWindowDao(dbClient),
		util.GetEnvAsInt("RATE_LIMIT", 10),
		time.Duration(util.GetEnvAsInt("RATE_WINDOW_MIN", 60))*time.Minute,
		util.GetEnvAsBool("RATE_FAIL_OPEN", true))

	//create sms channel client
	smsSender := sms.NewClient(
		util.GetEnv("SMS_API_URL", "https://api.twilio.com/2010-04-01"),
		util.GetEnv("SMS_ACCOUNT", ""),
		util.GetEnv("SMS_TOKEN", ""),
		util.GetEnv("SMS_FROM", ""),
		util.GetEnvAsBool("SMS_ENABLED", false),
		util.GetEnvAsInt("TRX_PER_SEC", 100),
		httpTimeout)

	callbackSecret := util.GetEnv("CALLBACK_SECRET", "")
	callbackUrl := util.GetEnv("CALLBACK_URL",
		"http://localhost:"+util.GetEnv("HTTP_PORT", "8080")+"/callbacks/delivery")

	var jobScheduler scheduler.Scheduler
	if schedulerUrl := util.GetEnv("SCHEDULER_URL", ""); !util.IsBlank(schedulerUrl) {
		jobScheduler = scheduler.NewHttpScheduler(schedulerUrl, util.GetEnv("SCHEDULER_TOKEN", ""), httpTimeout)
	} else {
		//no external scheduler configured, fire jobs from the embedded poller
		local := scheduler.NewLocalScheduler(dao.NewJobDao(dbClient), callbackSecret, httpTimeout)
		go local.Run(context.Background())
		jobScheduler = local
	}

	transcriber := transcribe.NewClient(
		util.GetEnv("TRANSCRIBE_API_URL", ""),
		util.GetEnv("TRANSCRIBE_TOKEN", ""),
		httpTimeout)

	reminderService := service.NewService(
		reminderDao,
		limiter,
		smsSender,
		jobScheduler,
		transcriber,
		callbackUrl,
		util.GetEnvAsInt("SMS_MAX_LEN", 300),
		util.GetEnv("WEB_HOOK", ""),
		util.GetEnv("PHONE_MASK", `^\+[1-9]\d{7,14}$`),
	)

	//attach http handlers
	e := echo.New()
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.HideBanner = true
	e.Use(middleware.BodyLimit("2M"))

	bindRoutes(e, reminderService, callbackSecret)

	//start http server
	log.Fatal(e.Start(":" + util.GetEnv("HTTP_PORT", "8080")))
}

func bindRoutes(e *echo.Echo, srv service.Service, callbackSecret string) {

	e.POST("/reminders", controller.GetScheduleReminderFunc(srv))

	e.POST("/reminders/voice", controller.GetScheduleVoiceReminderFunc(srv))

	e.GET("/reminders/:id", controller.GetCheckReminderFunc(srv))

	e.POST("/callbacks/delivery", controller.GetDeliveryCallbackFunc(srv, callbackSecret))
}
