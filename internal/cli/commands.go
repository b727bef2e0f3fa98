// Package cli implements the interactive console and the table renderers
// shared with the command-line subcommands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"

	"github.com/furcwire-project/furcwire/internal/connector"
	"github.com/furcwire-project/furcwire/internal/db"
	"github.com/furcwire-project/furcwire/internal/network"
	"github.com/furcwire-project/furcwire/internal/protocol"
)

// Client is the part of the protocol client the console drives.
type Client interface {
	State() connector.State
	Reason() connector.DisconnectReason
	SessionID() string
	Stats() (network.Stats, bool)

	Command(text string) error
	Say(text string) error
	Move(d protocol.Direction) error
	Rotate(dir int) error
	GoMap(id int) error
	FDL(url string) error
	GoToDream(owner, dream string) error
	Vascodagama() error
}

// CaptureReader reads the journal of undecoded traffic.
type CaptureReader interface {
	Recent(limit int) ([]db.Capture, error)
}

// CLI provides an interactive command-line interface.
type CLI struct {
	client   Client
	captures CaptureReader
	quit     func()

	in  io.Reader
	out io.Writer
}

// NewCLI creates a console reading commands from in. captures may be nil.
// quit is called by the quit command.
func NewCLI(client Client, captures CaptureReader, quit func(), in io.Reader, out io.Writer) *CLI {
	return &CLI{
		client:   client,
		captures: captures,
		quit:     quit,
		in:       in,
		out:      out,
	}
}

// Start runs the console until ctx is done, the input ends or quit is typed.
func (c *CLI) Start(ctx context.Context) {
	fmt.Fprintln(c.out, "\nfurcwire console ready. Type 'help' for available commands.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			cmd, rest, _ := strings.Cut(line, " ")
			if done, err := c.execute(strings.ToLower(cmd), strings.TrimSpace(rest)); err != nil {
				fmt.Fprintf(c.out, "Error: %v\n", err)
			} else if done {
				return
			}
		}
	}
}

// execute runs one console command. It reports true when the console should exit.
func (c *CLI) execute(cmd, rest string) (bool, error) {
	switch cmd {
	case "help", "h", "?":
		c.printHelp()
	case "status", "s":
		RenderStatus(c.out, c.client)
	case "catalogue", "cat":
		RenderCatalogue(c.out, filterCatalogue(protocol.Catalogue(), rest))
	case "captures":
		return false, c.cmdCaptures(rest)
	case "say":
		return false, c.sent(c.client.Say(rest))
	case "raw", "cmd":
		return false, c.sent(c.client.Command(rest))
	case "move", "m":
		dir, err := protocol.ParseDirection(rest)
		if err != nil {
			return false, err
		}
		return false, c.sent(c.client.Move(dir))
	case "turn":
		switch rest {
		case "cw", "right":
			return false, c.sent(c.client.Rotate(protocol.RotateClockwise))
		case "ccw", "left":
			return false, c.sent(c.client.Rotate(protocol.RotateCounterClockwise))
		default:
			return false, fmt.Errorf("usage: turn <cw|ccw>")
		}
	case "gomap":
		id, err := strconv.Atoi(rest)
		if err != nil {
			return false, fmt.Errorf("invalid map id: %q", rest)
		}
		return false, c.sent(c.client.GoMap(id))
	case "fdl":
		return false, c.sent(c.client.FDL(rest))
	case "dream":
		owner, dream, _ := strings.Cut(rest, " ")
		if owner == "" {
			return false, fmt.Errorf("usage: dream <owner> [name]")
		}
		return false, c.sent(c.client.GoToDream(owner, strings.TrimSpace(dream)))
	case "vascodagama", "home":
		return false, c.sent(c.client.Vascodagama())
	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Shutting down furcwire...")
		if c.quit != nil {
			c.quit()
		}
		return true, nil
	default:
		fmt.Fprintf(c.out, "Unknown command: '%s'. Type 'help' for available commands.\n", cmd)
	}
	return false, nil
}

func (c *CLI) sent(err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "sent")
	return nil
}

func (c *CLI) printHelp() {
	fmt.Fprint(c.out, `
  status               Show connection state and counters
  catalogue [status]   List known messages (decoded, opaque, unsupported)
  captures [n]         Show the last n captured messages
  say <text>           Speak
  raw <line>           Send a raw command line
  move <sw|se|nw|ne>   Walk one step
  turn <cw|ccw>        Rotate in place
  gomap <id>           Jump to a main map
  fdl <url>            Follow a dream link
  dream <owner> [name] Follow a player's dream
  vascodagama          Return to the default map
  quit                 Disconnect and exit
`)
	fmt.Fprintln(c.out)
}

func (c *CLI) cmdCaptures(arg string) error {
	if c.captures == nil {
		return fmt.Errorf("capture journal is disabled")
	}
	limit := 20
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count: %q", arg)
		}
		limit = n
	}
	captures, err := c.captures.Recent(limit)
	if err != nil {
		return err
	}
	RenderCaptures(c.out, captures)
	return nil
}

func filterCatalogue(entries []protocol.Entry, status string) []protocol.Entry {
	if status == "" {
		return entries
	}
	var out []protocol.Entry
	for _, e := range entries {
		if e.Status.String() == status {
			out = append(out, e)
		}
	}
	return out
}

// RenderStatus prints the connection state of client.
func RenderStatus(w io.Writer, client Client) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"State", "Last Reason", "Session", "Remote", "In", "Out", "Idle"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	row := []string{client.State().String(), client.Reason().String(), client.SessionID(), "-", "-", "-", "-"}
	if stats, ok := client.Stats(); ok {
		row[3] = stats.Remote
		row[4] = strconv.FormatInt(stats.BytesIn, 10)
		row[5] = strconv.FormatInt(stats.BytesOut, 10)
		row[6] = time.Since(stats.LastActivity).Truncate(time.Second).String()
	}
	tw.Append(row)
	tw.Render()
}

// RenderCatalogue prints one row per catalogue entry.
func RenderCatalogue(w io.Writer, entries []protocol.Entry) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Trigger", "Opcode", "Mnemonic", "Event", "Status", "Layout"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, e := range entries {
		op := strconv.Itoa(e.Opcode)
		if e.Sub != protocol.NoSubOpcode {
			op += ":" + strconv.Itoa(e.Sub)
		}
		tw.Append([]string{e.Trigger(), op, e.Mnemonic, string(e.Event), e.Status.String(), e.Layout})
	}
	tw.Render()
	log.Debug().Int("entries", len(entries)).Msg("catalogue rendered")
}

// RenderCaptures prints captured lines with their bytes quoted.
func RenderCaptures(w io.Writer, captures []db.Capture) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"ID", "Time", "Kind", "Line", "Error"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, c := range captures {
		tw.Append([]string{
			strconv.FormatInt(c.ID, 10),
			c.CapturedAt.Local().Format("15:04:05"),
			c.Kind,
			strconv.Quote(string(c.Line())),
			c.Error,
		})
	}
	tw.Render()
}
