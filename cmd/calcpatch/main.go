package main

import (
	"context"
	"os"

	"github.com/agbru/calcpatch/internal/app"
)

func main() {
	os.Exit(app.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
