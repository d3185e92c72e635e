package main

import (
	"os"

	"github.com/adanyl0v/go-todo-planner/internal/app"
	"github.com/adanyl0v/go-todo-planner/internal/cli"
)

func main() {
	app.InitDefaultLogger()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
