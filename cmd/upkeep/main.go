package main

import "github.com/kWAYTV/rust-decay-notification-app/internal/cli"

func main() {
	cli.Execute()
}
