package main

import (
	"log"
	"os"

	"github.com/WMS-GIETU/WorkshopMS/apps/api/echo"
	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/album"
	"github.com/WMS-GIETU/WorkshopMS/core/attendance"
	"github.com/WMS-GIETU/WorkshopMS/core/face"
	"github.com/WMS-GIETU/WorkshopMS/core/registration"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
	"github.com/WMS-GIETU/WorkshopMS/core/workshop"
	"github.com/WMS-GIETU/WorkshopMS/services/email"
	"github.com/WMS-GIETU/WorkshopMS/services/logger"
	"github.com/WMS-GIETU/WorkshopMS/storage/database"
	"github.com/WMS-GIETU/WorkshopMS/storage/database/inmem"
	"github.com/WMS-GIETU/WorkshopMS/storage/database/postgres"
	"github.com/WMS-GIETU/WorkshopMS/storage/redis"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var logSvc core.Logger
	if core.Conf.RollbarToken != "" {
		logSvc = logsvc.NewRollbarLogger(std, core.Conf)
	} else {
		logSvc = logsvc.NewStdLogger(std)
	}

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(std, err)
	defer db.Close()
	errAndDie(std, database.Migrate(db))

	// set up OTP store
	var otps user.OTPStore
	if rdb, err := redisstore.Open(core.Conf); err != nil {
		if !core.Conf.Debug {
			std.Fatal(err)
		}
		logSvc.Warn("redis unavailable, using in-memory OTP store: " + err.Error())
		otps = inmemdb.NewOTPStore()
	} else {
		defer rdb.Close()
		otps = redisstore.NewOTPStore(rdb)
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService()
	}

	usrRepo := pgdb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, otps, mailSvc, logSvc)
	regSvc := registration.NewService(pgdb.NewRegistrationRepository(db), usrRepo, mailSvc, logSvc)
	wsSvc := workshop.NewService(
		pgdb.NewWorkshopRepository(db),
		pgdb.NewWorkshopRequestRepository(db),
		pgdb.NewWorkshopRegistrationRepository(db),
		logSvc,
	)
	attSvc := attendance.NewService(pgdb.NewAttendanceRepository(db), logSvc)
	albSvc := album.NewService(pgdb.NewAlbumRepository(db), pgdb.NewWorkshopRepository(db), logSvc)
	faceSvc := face.NewService(pgdb.NewFaceRepository(db), mailSvc, logSvc)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:         core.Conf.Addr(),
			Logger:          logSvc,
			UserSvc:         usrSvc,
			RegistrationSvc: regSvc,
			WorkshopSvc:     wsSvc,
			AttendanceSvc:   attSvc,
			AlbumSvc:        albSvc,
			FaceSvc:         faceSvc,
		},
	)
	app.Start()
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
