package main

import "appbundler/internal/cli"

func main() {
	cli.Execute()
}
