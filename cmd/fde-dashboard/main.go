package main

import "fde-dashboard/internal/cli"

func main() {
	cli.Execute()
}
