package main

import (
	stdlog "log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/jualearn/jualearn-web/core"
	"github.com/jualearn/jualearn-web/core/session"
	logsvc "github.com/jualearn/jualearn-web/services/logger"
	"github.com/jualearn/jualearn-web/web"
)

func main() {
	conf := core.NewConfig()
	std := stdlog.New(os.Stdout, conf.AppName+" ", stdlog.LstdFlags|stdlog.Lshortfile)

	var logger core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator, session.RoleValidation)

	app, err := web.NewServer(&web.Options{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
	})
	if err != nil {
		logger.Fatal("setting up server", err)
	}

	logger.Info("serving JuaLearn on " + conf.Server.Address)
	if err := app.Start(); err != nil {
		logger.Fatal("server stopped", err)
	}
}
