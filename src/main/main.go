package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"xshot/src/config"
	"xshot/src/eventloop"
	"xshot/src/gui"
	"xshot/src/hotkey"
	"xshot/src/messages"
	"xshot/src/notification"
	"xshot/src/runtimeinit"
	"xshot/src/screenshot"
	"xshot/src/session"
	"xshot/src/singleinstance"
	"xshot/src/tray"
)

const appID = "io.github.xshot"

type mainOptions struct {
	runOnce bool
	hotkey  string
	envFile string
}

// triggerClient delegates a capture to a running resident.
type triggerClient interface {
	TryTrigger(ctx context.Context) (bool, error)
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"xshot"}
	}

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "xshot",
		Short:         "Hotkey screen capture: select a region, copy it to the clipboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts)
		},
	}

	cmd.Flags().BoolVar(&opts.runOnce, "run-once", false, "Capture once, copy the selection to the clipboard, and exit")
	cmd.Flags().StringVar(&opts.hotkey, "hotkey", "", "Global hotkey (overrides HOTKEY)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Path to a .env file (highest precedence)")

	return cmd
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"run-once", "hotkey", "env-file"} {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}

func runWithOptions(opts mainOptions) error {
	loadOptions := config.LoadOptions{EnvPathOverride: opts.envFile, HotkeyOverride: opts.hotkey}
	// Load .env early so SINGLEINSTANCE_PORT_* apply before the resident scan
	if _, err := config.LoadWithOptions(loadOptions); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.runOnce {
		var standaloneErr error
		err := handleRunOnceWithDelegation(context.Background(), singleinstance.NewClient(), func() {
			standaloneErr = runApp(loadOptions, true)
		})
		if err != nil {
			return err
		}
		return standaloneErr
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if port, ok := singleinstance.DetectResidentPort(ctx); ok {
		return fmt.Errorf("xshot is already running on port %d", port)
	}
	return runApp(loadOptions, false)
}

// handleRunOnceWithDelegation asks a resident to run the capture and falls back
// to a standalone session when none answers. A resident that ran the session
// reports its outcome, which is returned as is.
func handleRunOnceWithDelegation(ctx context.Context, client triggerClient, fallback func()) error {
	delegated, err := client.TryTrigger(ctx)
	if delegated {
		log.Printf("Delegated to resident (err=%v)", err)
		if errors.Is(err, context.Canceled) || isCancelled(err) {
			return nil
		}
		return err
	}
	if err != nil {
		log.Printf("Delegation error: %v; falling back to standalone", err)
	} else {
		log.Printf("No resident detected (not delegated), running standalone")
	}
	fallback()
	return nil
}

// isCancelled matches a cancellation reported over the wire, where only the
// message survives.
func isCancelled(err error) bool {
	return err != nil && err.Error() == session.ErrCancelled.Error()
}

// runApp runs the fyne app until quit. With runOnce it triggers one session
// and quits when that session ends; otherwise it stays resident with hotkey,
// tray and remote triggers.
func runApp(loadOptions config.LoadOptions, runOnce bool) error {
	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{LoadOptions: loadOptions})
	if err != nil {
		return err
	}
	defer rt.Log.Close()
	cfg := rt.Config
	screenshot.LogDisplays()

	a := app.NewWithID(appID)
	a.SetIcon(tray.Icon)
	notifier := notification.Notifier{App: a}

	var loop *eventloop.Loop
	win := gui.NewWindow(a, cfg.DisplayIndex, func(m messages.Message) { loop.Post(m) })

	opts := runtimeinit.SessionOptions(cfg)
	opts.Window = win
	opts.Notifier = notifier
	loop, err = eventloop.New(opts)
	if err != nil {
		return err
	}

	var runErr error
	if runOnce {
		loop.OnIdle(func(err error) {
			if err != nil && !errors.Is(err, session.ErrCancelled) {
				runErr = err
			}
			fyne.Do(a.Quit)
		})
	} else {
		loop.WithServer(singleinstance.NewServer())
		if err := loop.StartHotkey(cfg.Hotkey); err != nil {
			log.Printf("Hotkey disabled: %v", err)
			notifier.Notify(tray.Title, fmt.Sprintf("Hotkey %s unavailable, use the tray menu", cfg.Hotkey))
		} else {
			defer hotkey.Stop()
		}
		tray.Setup(a, cfg.Hotkey, singleinstance.CurrentPortRange().Start, func() { loop.Trigger(messages.SourceTray) })
		log.Printf("xshot resident, hotkey %s", cfg.Hotkey)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			fyne.Do(a.Quit)
		case <-ctx.Done():
		}
	}()

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()
	if runOnce {
		loop.Trigger(messages.SourceCLI)
	}

	a.Run()
	cancel()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("event loop stopped: %v", err)
	}
	return runErr
}
