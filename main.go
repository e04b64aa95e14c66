// Package main provides the entry point for the Syncytia Counter application.
package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"syncytia-counter/internal/app"
	"syncytia-counter/internal/version"
	"syncytia-counter/ui/mainwindow"
	"syncytia-counter/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const (
	appID    = "org.syncytia.counter"
	appTitle = "Syncytia Counter"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s (%s)", appTitle, version.Version, version.GitCommit)

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.CounterTheme{})

	appPrefs := prefs.Load()
	session := app.NewSession(appPrefs.Config())

	win := mainwindow.New(fyneApp, session, appPrefs)

	// Command line: images to open, then an optional markers file to load.
	for _, arg := range os.Args[1:] {
		if strings.EqualFold(filepath.Ext(arg), ".json") {
			if err := session.LoadMarkers(arg); err != nil {
				log.Printf("Failed to load markers %s: %v", arg, err)
			}
			continue
		}
		if err := win.OpenImage(arg); err != nil {
			log.Printf("Failed to open image %s: %v", arg, err)
		}
	}

	win.ShowAndRun()
}
