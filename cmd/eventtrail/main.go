package main

import (
	"context"
	"os"

	"github.com/solatis/eventtrail/cmd/eventtrail/cmd"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
