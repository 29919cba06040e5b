package main

import "github.com/transdesk/backend/internal/cli"

func main() {
	cli.Execute()
}
