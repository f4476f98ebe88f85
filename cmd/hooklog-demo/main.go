package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"hooklog/internal/demo"
	"hooklog/internal/providers/shared"
)

const usage = "usage: hooklog-demo <send|push|sign> [flags]"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "send":
		send(os.Args[2:])
	case "push":
		push(os.Args[2:])
	case "sign":
		sign(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}
}

func defaultSecret() string {
	if v := os.Getenv("HOOKLOG_WEBHOOK_SECRET"); v != "" {
		return v
	}
	return os.Getenv("WEBHOOK_SECRET")
}

func send(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	url := fs.String("url", "http://localhost:5000/webhook", "webhook endpoint")
	secret := fs.String("secret", defaultSecret(), "shared webhook secret")
	event := fs.String("event", "", "X-GitHub-Event value, e.g. push or pull_request")
	file := fs.String("file", "", "JSON payload file")
	_ = fs.Parse(args)

	if strings.TrimSpace(*event) == "" || strings.TrimSpace(*file) == "" {
		fmt.Fprintln(os.Stderr, "--event and --file are required")
		os.Exit(2)
	}
	body, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	deliver(demo.Sender{URL: *url, Secret: *secret}, *event, body)
}

func push(args []string) {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	url := fs.String("url", "http://localhost:5000/webhook", "webhook endpoint")
	secret := fs.String("secret", defaultSecret(), "shared webhook secret")
	repo := fs.String("repo", ".", "local git repository")
	branch := fs.String("branch", "", "branch to report instead of HEAD's")
	pusher := fs.String("pusher", "", "pusher name instead of the HEAD author")
	dryRun := fs.Bool("dry-run", false, "print the payload instead of sending it")
	_ = fs.Parse(args)

	body, err := demo.PushPayloadFromRepo(demo.PushOptions{Path: *repo, Branch: *branch, Pusher: *pusher})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *dryRun {
		fmt.Println(string(body))
		return
	}
	deliver(demo.Sender{URL: *url, Secret: *secret}, "push", body)
}

func sign(args []string) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	secret := fs.String("secret", defaultSecret(), "shared webhook secret")
	file := fs.String("file", "", "JSON payload file")
	_ = fs.Parse(args)

	if *secret == "" || strings.TrimSpace(*file) == "" {
		fmt.Fprintln(os.Stderr, "--secret and --file are required")
		os.Exit(2)
	}
	body, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(shared.Signature(*secret, body))
}

func deliver(sender demo.Sender, event string, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	resp, err := sender.Send(ctx, event, body)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("delivery %s: %d %s\n", resp.Delivery, resp.Status, resp.Body)
	if resp.Status >= 300 {
		os.Exit(1)
	}
}
