// flightctl: command line client for a running flightschool server
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-flightschool/internal/config"
	"github.com/teslashibe/go-flightschool/internal/httpc"
	"github.com/teslashibe/go-flightschool/pkg/lessons"
	"github.com/teslashibe/go-flightschool/pkg/protocol"
	"github.com/teslashibe/go-flightschool/pkg/sim"
)

const usage = `flightctl - talk to a flightschool server

Usage:
  flightctl [flags] <command> [args]

Commands:
  health                  Server status
  lessons                 List lessons
  play <id> <code>        Check a lesson answer
  compile <workspace>     Compile a workspace file ("-" for stdin)
  run <workspace>         Start a workspace file on the drone
  state                   Current drone state
  key <key>               Press a manual control key
  reset                   Reset the world
  trace                   Recent executor effects
  watch                   Stream telemetry until interrupted

Flags:
`

func main() {
	server := flag.String("server", config.ServerURL(), "Server base URL (or set FLIGHTSCHOOL_URL)")
	wait := flag.Bool("wait", false, "run: wait for the program to finish")
	progress := flag.String("progress", "1", "play: comma separated unlocked lesson ids")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := &cli{base: strings.TrimRight(*server, "/"), timeout: *timeout}
	args := flag.Args()[1:]

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "health":
		err = c.get(ctx, "/health")
	case "lessons":
		err = c.get(ctx, "/api/lessons")
	case "play":
		err = c.play(ctx, args, *progress)
	case "compile":
		err = c.postFile(ctx, "/api/drone/compile", args)
	case "run":
		path := "/api/drone/program"
		if *wait {
			path += "?wait=true"
		}
		err = c.postFile(ctx, path, args)
	case "state":
		err = c.get(ctx, "/api/drone/state")
	case "key":
		if len(args) != 1 {
			err = fmt.Errorf("key: expected one key, one of %s", strings.Join(sim.Keys(), ", "))
			break
		}
		err = c.post(ctx, "/api/drone/keys/"+url.PathEscape(args[0]), nil)
	case "reset":
		err = c.post(ctx, "/api/drone/reset", nil)
	case "trace":
		err = c.get(ctx, "/api/drone/trace")
	case "watch":
		err = c.watch(ctx)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

type cli struct {
	base    string
	timeout time.Duration
}

func (c *cli) get(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var out json.RawMessage
	if err := httpc.GetJSON(ctx, c.base+path, &out); err != nil {
		return err
	}
	return printJSON(out)
}

func (c *cli) post(ctx context.Context, path string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var out json.RawMessage
	if err := httpc.PostJSON(ctx, c.base+path, body, &out); err != nil {
		return err
	}
	return printJSON(out)
}

// postFile posts a workspace read from a file or stdin.
func (c *cli) postFile(ctx context.Context, path string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected one workspace file")
	}
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read workspace: %w", err)
	}
	return c.post(ctx, path, data)
}

// play submits a lesson answer with the given progress cookie.
func (c *cli) play(ctx context.Context, args []string, unlocked string) error {
	if len(args) != 2 {
		return fmt.Errorf("play: expected <id> <code>")
	}
	p, ok := lessons.ParseProgress("[" + unlocked + "]")
	if !ok {
		return fmt.Errorf("play: invalid -progress %q", unlocked)
	}

	body, err := json.Marshal(map[string]string{"code": args[1]})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/lessons/"+url.PathEscape(args[0])+"/play", strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: lessons.CookieName, Value: p.Encode()})

	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &httpc.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return printJSON(data)
}

// watch prints telemetry, run and effect messages until ctx is done.
func (c *cli) watch(ctx context.Context) error {
	wsURL := "ws" + strings.TrimPrefix(c.base, "http") + "/ws/telemetry"
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer ws.Close()

	go func() {
		<-ctx.Done()
		ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		ws.Close()
	}()

	fmt.Printf("📡 Watching %s\n", wsURL)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  %v\n", err)
			continue
		}
		printMessage(msg)
	}
}

func printMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeTelemetry:
		t, err := msg.GetTelemetryData()
		if err != nil {
			return
		}
		hover := "off"
		if t.Hover.Enabled && t.Hover.Target != nil {
			hover = fmt.Sprintf("%.2fm", *t.Hover.Target)
		}
		fmt.Printf("t=%6.2fs pos=(%6.2f %6.2f %6.2f) euler=(%5.2f %5.2f %5.2f) hover=%s %s\n",
			t.Time, t.Position[0], t.Position[1], t.Position[2],
			t.Euler[0], t.Euler[1], t.Euler[2], hover, t.Instruction)
	case protocol.TypeRun:
		r, err := msg.GetRunData()
		if err != nil {
			return
		}
		fmt.Printf("▶️  run %s %s (%d/%d)\n", r.ID, r.Status, r.Index, r.Instructions)
	case protocol.TypeEffect:
		e, err := msg.GetEffectData()
		if err != nil {
			return
		}
		fmt.Printf("   #%d tick %d %s %s\n", e.Seq, e.Tick, e.Kind, e.Instruction)
	case protocol.TypeError:
		e, err := msg.GetErrorData()
		if err != nil {
			return
		}
		fmt.Printf("❌ %s: %s\n", e.Code, e.Message)
	default:
		fmt.Printf("%s %s\n", msg.Type, msg.Data)
	}
}

func printJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

