package main

import (
	"context"
	"log"
	"os"

	echoapi "github.com/chendurkumaran/eduresource/apps/api/echo"
	"github.com/chendurkumaran/eduresource/core"
	"github.com/chendurkumaran/eduresource/core/assignment"
	"github.com/chendurkumaran/eduresource/core/course"
	"github.com/chendurkumaran/eduresource/core/enrollment"
	"github.com/chendurkumaran/eduresource/core/submission"
	"github.com/chendurkumaran/eduresource/core/user"
	emailsvc "github.com/chendurkumaran/eduresource/services/email"
	logsvc "github.com/chendurkumaran/eduresource/services/logger"
	uploadsvc "github.com/chendurkumaran/eduresource/services/upload"
	"github.com/chendurkumaran/eduresource/storage/database"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, core.Conf)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(logger, err)
	defer func() { _ = db.Close() }()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	var storage core.FileStorage
	if core.Conf.Upload.Bucket != "" {
		storage, err = uploadsvc.NewS3Storage(context.Background(), core.Conf)
		errAndDie(logger, err)
	} else {
		storage = uploadsvc.NewMemoryStorage()
	}

	usrRepo := database.NewUserRepository(db)
	crsRepo := database.NewCourseRepository(db)
	asgRepo := database.NewAssignmentRepository(db)
	subRepo := database.NewSubmissionRepository(db)
	enrRepo := database.NewEnrollmentRepository(db)

	usrSvc := user.NewService(usrRepo, mailSvc)
	crsSvc := course.NewService(crsRepo)
	enrSvc := enrollment.NewService(enrRepo, crsRepo)
	asgSvc := assignment.NewService(asgRepo, crsRepo, enrRepo, usrRepo, mailSvc, logger)
	subSvc := submission.NewService(subRepo, asgRepo, storage, logger)

	// start API server
	app := echoapi.NewServer(&echoapi.Options{
		Address:       core.Conf.Server.Addr,
		Logger:        logger,
		UserSvc:       usrSvc,
		CourseSvc:     crsSvc,
		AssignmentSvc: asgSvc,
		SubmissionSvc: subSvc,
		EnrollmentSvc: enrSvc,
	})
	app.Start()
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error())
	}
}
