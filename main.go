// Package main department inventory API.
//
// @title           Lab Reservation API
// @version         1.0
// @description     Inventory and reservation service for department equipment.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"labreserve/app/echoServer"
	authctrl "labreserve/app/echoServer/controller/auth"
	itemctrl "labreserve/app/echoServer/controller/item"
	resctrl "labreserve/app/echoServer/controller/reservation"
	userctrl "labreserve/app/echoServer/controller/user"
	"labreserve/app/echoServer/validation"
	"labreserve/config"
	itemrepo "labreserve/repository/item"
	ldaprepo "labreserve/repository/ldap"
	resrepo "labreserve/repository/reservation"
	userrepo "labreserve/repository/user"
	authsvc "labreserve/service/auth"
	itemsvc "labreserve/service/item"
	notifsvc "labreserve/service/notification"
	ressvc "labreserve/service/reservation"
	usersvc "labreserve/service/user"
	"labreserve/util/database"
	"labreserve/util/ics"
	"labreserve/util/mailer"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.ImageDir, 0o755); err != nil {
		log.Error("can't create image dir", "dir", cfg.ImageDir, "err", err)
		os.Exit(1)
	}

	// repos
	ur := userrepo.New(db)
	ir := itemrepo.New(db)
	rr := resrepo.New(db)

	var dir ldaprepo.Identity
	if cfg.AuthProvider == "ldap" {
		dir = ldaprepo.New(cfg.LDAPURL, cfg.LDAPBaseDN, cfg.LDAPDomain)
	}

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		log.Warn("SMTP not configured, email delivery disabled")
	}

	// services
	tx := database.NewRunner(db)
	as := authsvc.New(ur, dir, cfg.JWTSecret)
	us := usersvc.New(tx, ur, rr)
	rs := ressvc.New(tx, rr, ir, ur, mail, ics.New(), log)

	is := itemsvc.New(tx, ir, cfg.ImageDir)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		is = &itemsvc.Caching{Service: is, Redis: rdb, TTL: 5 * time.Minute}
	}

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	userC := &userctrl.Controller{Svc: us, V: v, Log: log}
	itemC := &itemctrl.Controller{Svc: is, V: v, Log: log}
	resC := &resctrl.Controller{Svc: rs, V: v, Log: log}

	// due-date scan
	if cfg.SchedulerEnabled && mail != nil {
		ns := notifsvc.New(rr, ir, mail, log)
		sched := cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
		))
		_, err := sched.AddFunc("@every 24h", func() {
			if err := ns.Scan(context.Background()); err != nil {
				log.Error("due date scan failed", "err", err)
			}
		})
		if err != nil {
			log.Error("can't schedule due date scan", "err", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	echoServer.Register(e, echoServer.C{
		Auth:        authC,
		User:        userC,
		Item:        itemC,
		Reservation: resC,

		JWTSecret: cfg.JWTSecret,
	})

	log.Info("starting server", "port", cfg.Port, "env", cfg.Env)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
