package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matheus3301/parley/internal/api"
	"github.com/matheus3301/parley/internal/bus"
	"github.com/matheus3301/parley/internal/instance"
	"github.com/matheus3301/parley/internal/messaging"
	"github.com/matheus3301/parley/internal/profile"
	"github.com/matheus3301/parley/internal/session"
	"go.uber.org/zap"
)

type env struct {
	client  *api.Client
	sess    *session.Session
	msg     *messaging.Service
	profile *profile.Service
	jsonOut bool
}

func main() {
	instanceFlag := flag.String("instance", "", "instance name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	name := instance.Resolve(*instanceFlag)
	if err := instance.ValidateName(name); err != nil {
		fatal(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	layout := instance.For(name)
	c, err := api.Dial(layout.SocketPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot connect to daemon for instance %q: %v\n", name, err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if !c.Healthy(ctx) {
		fmt.Fprintf(os.Stderr, "error: daemon for instance %q is not running (start parleyd --instance %s)\n", name, name)
		os.Exit(1)
	}

	sess := session.New(c, bus.New(), session.NewFileTokenStore(layout.TokenPath()), zap.NewNop())
	e := &env{
		client:  c,
		sess:    sess,
		msg:     messaging.New(sess, nil, messaging.Options{}),
		profile: profile.New(sess, nil),
		jsonOut: *jsonFlag,
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "status":
		err = e.status(ctx)
	case "signup", "login", "logout":
		err = e.auth(ctx, cmd, rest)
	default:
		// Everything else acts on behalf of the stored session.
		if err = sess.Restore(ctx); err == nil {
			err = e.run(ctx, cmd, rest)
		}
	}
	if err != nil {
		fatal(err)
	}
}

func (e *env) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "whoami":
		return e.whoami(ctx)
	case "users":
		return e.users(ctx, args)
	case "chats":
		return e.chats(ctx)
	case "send":
		if len(args) < 2 {
			return usageError("send <uid> <text>")
		}
		return e.send(ctx, args[0], strings.Join(args[1:], " "))
	case "history":
		if len(args) != 1 {
			return usageError("history <uid>")
		}
		return e.history(ctx, args[0])
	case "profile":
		return e.profileCmd(ctx, args)
	case "passwd":
		return e.passwd(ctx)
	case "email":
		if len(args) != 1 {
			return usageError("email <new-address>")
		}
		return e.email(ctx, args[0])
	}
	printUsage()
	return fmt.Errorf("unknown command: %s", cmd)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: parleyctl [--instance <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                      Show daemon status")
	fmt.Fprintln(os.Stderr, "  signup <email> <name>       Create an account")
	fmt.Fprintln(os.Stderr, "  login <email>               Sign in")
	fmt.Fprintln(os.Stderr, "  logout                      Sign out")
	fmt.Fprintln(os.Stderr, "  whoami                      Show the signed-in user")
	fmt.Fprintln(os.Stderr, "  users [--online]            List other users")
	fmt.Fprintln(os.Stderr, "  chats                       List conversations")
	fmt.Fprintln(os.Stderr, "  send <uid> <text>           Send a message")
	fmt.Fprintln(os.Stderr, "  history <uid>               Show the conversation with a user")
	fmt.Fprintln(os.Stderr, "  profile show [uid]          Show a profile")
	fmt.Fprintln(os.Stderr, "  profile set [flags]         Update your profile")
	fmt.Fprintln(os.Stderr, "  profile photo <file|-rm>    Upload or remove your photo")
	fmt.Fprintln(os.Stderr, "  passwd                      Change your password")
	fmt.Fprintln(os.Stderr, "  email <new-address>         Change your email")
}

func usageError(s string) error {
	return fmt.Errorf("usage: parleyctl %s", s)
}

var stdin = bufio.NewReader(os.Stdin)

// prompt reads one line from stdin. Passwords are read the same way so the
// command can be scripted.
func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
