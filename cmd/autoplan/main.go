package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Iron-Ham/autoplan/internal/cmd"
	apperrors "github.com/Iron-Ham/autoplan/internal/errors"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
}
