package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "readpdf",
		Short: "Extract text and resolved internal links from PDF guidelines",
	}

	root.AddCommand(extractCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
