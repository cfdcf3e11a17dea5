package main

import (
	"context"

	"wbb_scrooper/cli"
)

func main() {
	cli.ExecuteContext(context.Background())
}
