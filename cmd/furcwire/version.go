package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/furcwire-project/furcwire/internal/util"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(util.Version)
				return
			}

			fmt.Print(banner)
			fmt.Println()
			fmt.Printf("  Version:    %s\n", util.Version)
			fmt.Printf("  Go version: %s\n", runtime.Version())
			fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Println()
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}
