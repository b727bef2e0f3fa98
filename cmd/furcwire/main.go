// furcwire - Furcadia line-protocol client.
//
// furcwire connects to a Furcadia game server, decodes every server line
// into a typed event, and republishes the event stream over a local control
// API, a websocket, MQTT and Prometheus metrics. Messages it cannot decode
// are journaled to SQLite for analysis.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const banner = `
   __                             _
  / _|_   _ _ __ _____      _(_)_ __ ___
 | |_| | | | '__/ __\ \ /\ / / | '__/ _ \
 |  _| |_| | | | (__ \ V  V /| | | |  __/
 |_|  \__,_|_|  \___| \_/\_/ |_|_|  \___|
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "furcwire",
		Short: "Furcadia protocol client and event gateway",
		Long: `furcwire speaks the Furcadia line protocol.

It logs a character in, decodes the server's messages into typed events
and serves them over a control API, a websocket stream and MQTT.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		catalogueCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
