package main

import "github.com/s22625/jobctl/internal/cli"

func main() {
	cli.Execute()
}
