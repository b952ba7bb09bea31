package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yok-tottii/ezaudio/internal/api"
	"github.com/yok-tottii/ezaudio/internal/clipboard"
	"github.com/yok-tottii/ezaudio/internal/events"
	"github.com/yok-tottii/ezaudio/internal/hotkey"
	"github.com/yok-tottii/ezaudio/internal/notification"
	"github.com/yok-tottii/ezaudio/internal/server"
	"github.com/yok-tottii/ezaudio/internal/tray"
)

var (
	serveNoTray   bool
	serveNoHotkey bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tray icon, global hotkey and local HTTP API",
	Long: `Run ezaudio as a desktop service: a tray icon reflecting the recorder
state, a global hotkey that starts and stops recording, and the local HTTP
API with its websocket event stream and Prometheus metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoTray, "no-tray", false, "run without the tray icon")
	serveCmd.Flags().BoolVar(&serveNoHotkey, "no-hotkey", false, "do not register the global hotkey")
}

// hotkeyConfig turns the hotkey settings into a registration
func hotkeyConfig(keys, mode string) (hotkey.Config, error) {
	binding, err := hotkey.ParseBinding(keys)
	if err != nil {
		return hotkey.Config{}, err
	}
	m, err := hotkey.ParseMode(mode)
	if err != nil {
		return hotkey.Config{}, err
	}
	return hotkey.Config{Binding: binding, Mode: m}, nil
}

func registerHotkey(log shellLogger) (*hotkey.Manager, error) {
	hkConfig, err := hotkeyConfig(settings.Hotkey.Keys, settings.Hotkey.Mode)
	if err != nil {
		return nil, err
	}
	for _, c := range hotkey.CheckConflicts(hkConfig.Binding) {
		log.Warn("Hotkey %s may conflict with %s (%s)", hkConfig.Binding, c.Name, c.Description)
	}

	mgr := hotkey.New()
	if err := mgr.Register(hkConfig); err != nil {
		return nil, err
	}
	log.Info("Hotkey registered: %s (%s)", hkConfig.Binding.Format(), hkConfig.Mode)
	return mgr, nil
}

func runServe(cmd *cobra.Command) error {
	deps, err := newEngine()
	if err != nil {
		return err
	}
	defer deps.engine.Close()

	serverConfig := server.DefaultConfig()
	serverConfig.Addr = settings.Server.Addr
	serverConfig.Port = settings.Server.Port
	srv := server.New(serverConfig, appLog.With("server"))
	api.New(deps.engine, deps.hub, deps.metrics.Handler(), appLog.With("api")).RegisterRoutes(srv.GetMux())

	notifier := notification.NewNotificationManager("ezaudio")
	notifier.SetEnabled(settings.Notifications)

	sh := &shell{
		engine:       deps.engine,
		notify:       notifier,
		clip:         clipboard.NewManager(clipboard.DefaultConfig()),
		log:          appLog.With("shell"),
		maxRecording: settings.Recording.MaxDuration,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx)
	})

	ch, unsubscribe := deps.hub.Subscribe(events.DefaultBuffer)
	defer unsubscribe()
	g.Go(func() error {
		return sh.watchEvents(gctx, ch)
	})

	hotkeyLabel := "disabled"
	if !serveNoHotkey {
		hk, err := registerHotkey(appLog.With("hotkey"))
		if err != nil {
			appLog.Error("Failed to register hotkey: %v", err)
		} else {
			defer hk.Close()
			hotkeyLabel = hk.GetConfig().Binding.Format()
			g.Go(func() error {
				sh.watchHotkeys(gctx, hk.Events())
				return nil
			})
		}
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "ezaudio %s\n", version)
	fmt.Fprintf(out, "  API:        %s\n", srv.URL())
	fmt.Fprintf(out, "  Recordings: %s\n", settings.DataDir)
	fmt.Fprintf(out, "  Hotkey:     %s\n", hotkeyLabel)
	fmt.Fprintf(out, "  Logs:       %s\n", appLog.Dir())
	fmt.Fprintln(out, "Press Ctrl+C to quit")

	if serveNoTray {
		return g.Wait()
	}

	var trayMgr *tray.Manager
	trayMgr = tray.NewManager(tray.Config{
		AppName: "ezaudio",
		OnReady: func() {
			sh.setTray(trayMgr)
			trayMgr.SetLastRecording(deps.engine.LastRecording())
			sh.refreshDevices()
		},
		OnToggleRecording: sh.toggleRecording,
		OnStopPlayback:    func() { deps.engine.StopPlayback() },
		OnPlayLast:        sh.playLast,
		OnCopyLastPath:    sh.copyLastPath,
		OnDeviceChange:    sh.selectDevice,
		OnQuit:            stop,
	})

	go func() {
		<-gctx.Done()
		trayMgr.Quit()
	}()

	// Blocks on the main thread until the tray quits
	trayMgr.Run()
	stop()
	return g.Wait()
}
