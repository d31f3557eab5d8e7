// Command tgcli is a terminal demo host for tgcore: it dials a single DC,
// drives the auth.sendCode/auth.signIn login flow against it, and prints
// the login-related updates.Callback notifications (the other callbacks
// are updates.NopCallback no-ops). It exists to show
// the Query Subsystem wired end to end, not as a production client.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mtprotogo/tgcore/calls"
	"github.com/mtprotogo/tgcore/connection"
	"github.com/mtprotogo/tgcore/query"
	"github.com/mtprotogo/tgcore/schema"
	"github.com/mtprotogo/tgcore/transport"
	"github.com/mtprotogo/tgcore/updates"
	"github.com/mtprotogo/tgcore/useragent"
	cli "github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func main() {
	app := cli.NewApp()
	app.Name = "tgcli"
	app.Author = "tgcore authors"
	app.Usage = "terminal demo client for the tgcore Query Subsystem"
	app.Version = "0.1.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "addr", Value: "127.0.0.1:443", Usage: "DC 2 address to dial"},
		&cli.BoolFlag{Name: "websocket", Usage: "dial addr as a websocket endpoint instead of raw TCP"},
		&cli.IntFlag{Name: "api-id", Value: 0, Usage: "application api_id sent in init_connection"},
		&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "dial timeout"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx *cli.Context) error {
	cb := &terminalCallback{}
	ua := useragent.New(
		useragent.WithAppID(int32(ctx.Int("api-id"))),
		useragent.WithCallback(cb),
	)
	ua.SetDCTable([]useragent.DCAddress{
		{DC: 2, Addr: ctx.String("addr"), WebSocket: ctx.Bool("websocket")},
	})

	conn, err := ua.Dial(2, ctx.Duration("timeout"), transport.TCPDialer{})
	if err != nil {
		return fmt.Errorf("dial DC 2: %w", err)
	}
	// No DH key-exchange handshake layer ships with tgcore; a real host
	// would wait for one to finish before this point.
	conn.SetStatus(connection.StatusConnected)
	conn.SetConfigured(true)

	reg := schema.NewRegistry()
	schema.RegisterBuiltins(reg)

	phone := cb.prompt("Phone number")
	codeHash := ""
	done := make(chan struct{})
	calls.SendCode(ua, reg, phone, func(ok bool, hash string, timeout int32) {
		defer close(done)
		if !ok {
			fmt.Println("auth.sendCode failed")
			return
		}
		codeHash = hash
		fmt.Printf("code sent, valid for %ds\n", timeout)
	}).Execute(conn, query.ExecOptionNormal)
	<-done

	if codeHash == "" {
		return fmt.Errorf("no phone_code_hash received")
	}

	code := cb.prompt("Login code")
	signedIn := make(chan struct{})
	calls.SignIn(ua, reg, phone, codeHash, code, func(ok bool, userID int64) {
		defer close(signedIn)
		if !ok {
			fmt.Println("auth.signIn failed")
			return
		}
		fmt.Printf("signed in as user %d\n", userID)
	}).Execute(conn, query.ExecOptionNormal)
	<-signedIn

	ua.Shutdown()
	return nil
}

// terminalCallback implements updates.Callback for a plain terminal host:
// it masks password/code entry with golang.org/x/term when stdin is a
// real TTY and falls back to a visible line read otherwise (piped input,
// tests), the same split promptPassword uses.
type terminalCallback struct {
	updates.NopCallback
}

func (c *terminalCallback) GetValues(kind updates.ValueKind, prompt string, numValues int, respond func([]string)) {
	answers := make([]string, 0, numValues)
	for i := 0; i < numValues; i++ {
		answers = append(answers, c.prompt(prompt))
	}
	respond(answers)
}

func (c *terminalCallback) LoggedIn() { fmt.Println("login complete") }

func (c *terminalCallback) OnFailedLogin() { fmt.Println("login failed") }

func (c *terminalCallback) Notification(title, msg string) { fmt.Printf("%s: %s\n", title, msg) }

// prompt masks the answer with term.ReadPassword when stdin is a real TTY
// (logins codes and passwords alike are sensitive enough to hide) and
// falls back to a plain line read for piped input.
func (c *terminalCallback) prompt(label string) string {
	fmt.Printf("%s: ", label)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return ""
		}
		return string(b)
	}
	var line string
	fmt.Scanln(&line)
	return line
}
