package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"cube-panel/models"
)

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fmtUptime(sec int64) string {
	d := time.Duration(sec) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm %ds", m, int(d.Seconds())%60)
}

func formatStatus(s models.Status) string {
	online := "offline"
	if s.Online {
		online = "online"
	}
	mode := "local"
	if s.ModeCloud {
		mode = "cloud"
	}
	return fmt.Sprintf("%s  %s  %s (%s)\nuptime %s  temp %.1f°C  mem %d/%d MB  mode %s",
		online, s.Net, s.IP, s.Host, fmtUptime(s.Uptime), s.TempC, s.MemUsed, s.MemTotal, mode)
}

func (a *app) status(ctx context.Context) error {
	s, err := a.client.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, formatStatus(s))
	return nil
}

func (a *app) logs(ctx context.Context, args []string) error {
	fs := newFlags("logs")
	n := fs.Int("n", 100, "lines to show")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	lines, err := a.client.Logs(ctx)
	if err != nil {
		return err
	}
	if *n >= 0 && len(lines) > *n {
		lines = lines[len(lines)-*n:]
	}
	for _, l := range lines {
		fmt.Fprintln(a.out, l)
	}
	return nil
}

// newLines returns the suffix of cur not already shown, given the last line
// printed. The device log is a sliding window, so a missing anchor means
// everything is new.
func newLines(last string, cur []string) []string {
	if last == "" {
		return cur
	}
	for i := len(cur) - 1; i >= 0; i-- {
		if cur[i] == last {
			return cur[i+1:]
		}
	}
	return cur
}

// watch polls status every 3s and logs every 1.5s on independent tickers.
// Failed polls are reported and the next tick tries again.
func (a *app) watch(ctx context.Context, args []string) error {
	fs := newFlags("watch")
	dur := fs.Duration("for", 0, "stop after this long (0 runs until interrupted)")
	clock := fs.Bool("clock", false, "print the time every second")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *dur > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *dur)
		defer cancel()
	}

	statusTick := time.NewTicker(3 * time.Second)
	logTick := time.NewTicker(1500 * time.Millisecond)
	clockTick := time.NewTicker(time.Second)
	defer statusTick.Stop()
	defer logTick.Stop()
	defer clockTick.Stop()

	var last string
	pollStatus := func() {
		if err := a.status(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintln(a.out, "status:", err)
		}
	}
	pollLogs := func() {
		lines, err := a.client.Logs(ctx)
		if err != nil {
			if ctx.Err() == nil {
				fmt.Fprintln(a.out, "logs:", err)
			}
			return
		}
		for _, l := range newLines(last, lines) {
			fmt.Fprintln(a.out, l)
		}
		if len(lines) > 0 {
			last = lines[len(lines)-1]
		}
	}

	pollStatus()
	pollLogs()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-statusTick.C:
			pollStatus()
		case <-logTick.C:
			pollLogs()
		case t := <-clockTick.C:
			if *clock {
				fmt.Fprintln(a.out, "--", t.Format("15:04:05"), "--")
			}
		}
	}
}

func (a *app) events(ctx context.Context) error {
	return a.client.StreamEvents(ctx, func(m models.WSMessage) {
		switch m.Type {
		case models.WSTypeLogLine:
			fmt.Fprintln(a.out, m.Payload)
		default:
			b, _ := json.Marshal(m.Payload)
			fmt.Fprintf(a.out, "%s %s\n", m.Type, b)
		}
	})
}

func (a *app) restart(ctx context.Context) error {
	if err := a.client.Restart(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Restarting services…")
	return nil
}

func (a *app) mode(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	var cloud bool
	switch strings.ToLower(args[0]) {
	case "cloud":
		cloud = true
	case "local":
	default:
		return errUsage
	}
	if err := a.client.SetMode(ctx, cloud); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Mode:", strings.ToLower(args[0]))
	return nil
}

func (a *app) scan(ctx context.Context) error {
	ssids, err := a.client.ScanNetworks(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Found %d networks\n", len(ssids))
	for _, s := range ssids {
		fmt.Fprintln(a.out, " ", s)
	}
	return nil
}

func (a *app) wifi(ctx context.Context, args []string) error {
	fs := newFlags("wifi")
	var n models.NetworkSettings
	fs.StringVar(&n.SSID, "ssid", "", "network name")
	fs.StringVar(&n.Password, "password", "", "passphrase")
	fs.StringVar(&n.Mode, "mode", "dhcp", "dhcp or static")
	fs.StringVar(&n.Static.IP, "ip", "", "static address")
	fs.StringVar(&n.Static.GW, "gw", "", "static gateway")
	fs.StringVar(&n.Static.DNS, "dns", "", "static dns")
	if err := fs.Parse(args); err != nil || n.SSID == "" {
		return errUsage
	}
	if err := a.client.SaveNetwork(ctx, n); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Network settings saved")
	return nil
}
