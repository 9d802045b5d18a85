package main

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"google.golang.org/appengine"

	"github.com/bkclothing/bk-site/server"
)

func main() {
	server.Init()

	if appengine.IsAppEngine() {
		logrus.Info("Running in App Engine Mode")
		appengine.Main()
	} else {
		logrus.Info("Running in Default Mode")
		if err := http.ListenAndServe(":"+viper.GetString("PORT"), nil); err != nil {
			logrus.Fatalf("server stopped: %s", err)
		}
	}
}
