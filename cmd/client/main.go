package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/GymKeeper/internal/client/activity"
	"github.com/atinyakov/GymKeeper/internal/client/api"
	"github.com/atinyakov/GymKeeper/internal/client/catalog"
	"github.com/atinyakov/GymKeeper/internal/client/notify"
	"github.com/atinyakov/GymKeeper/internal/client/session"
	"github.com/atinyakov/GymKeeper/internal/client/shell"
	"github.com/atinyakov/GymKeeper/internal/client/storage"
	"github.com/atinyakov/GymKeeper/internal/config"
	"github.com/atinyakov/GymKeeper/internal/logger"
)

var (
	version   string
	buildDate string
)

// main wires the session manager to the HTTP facade and the credential
// store, restores any persisted session and runs the interactive shell.
func main() {
	if len(os.Args) > 1 && os.Args[1] == "-version" {
		fmt.Printf("GymKeeper Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	opts, err := config.ParseClient(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	l := logger.New()
	if err := l.Init(opts.LogLevel); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Log.Sync() }()

	store, err := storage.Open(opts.DataDir)
	if err != nil {
		l.Log.Fatal("failed to open credential store", zap.Error(err))
	}

	httpClient, err := api.NewHTTPClient(opts.CAFile, opts.RequestTimeout.Duration)
	if err != nil {
		l.Log.Fatal("failed to build http client", zap.Error(err))
	}
	client := api.New(opts.APIURL,
		api.WithHTTPClient(httpClient),
		api.WithTokenStore(store),
		api.WithLogger(l.Log.Named("api")),
	)

	manager := session.New(store, client, l.Log.Named("session"))
	defer manager.Close()

	state := manager.Bootstrap()
	l.Log.Info("bootstrap complete", zap.Stringer("state", state))

	tags := notify.NewRecorder(notify.NewLogTagger(l.Log.Named("notify")))
	syncer := activity.NewSyncer(manager, tags, l.Log.Named("activity"))
	exercises := catalog.New(client, func(ctx context.Context, at time.Time) {
		if err := syncer.TagLastExerciseDate(ctx, at); err != nil {
			l.Log.Warn("failed to send last exercise date", zap.Error(err))
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncer.StartAutoSync(ctx, opts.SyncInterval.Duration)

	if user, ok := manager.CurrentUser(); ok {
		fmt.Printf("Signed in as %s\n", user.Email)
	}
	shell.New(os.Stdin, os.Stdout, manager, exercises, syncer, tags, l.Log.Named("shell")).Run(ctx)
}
