package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/lgess-community/ess-go/pkg/api"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session with the appliance",
	Long: `Shell logs in once and reads commands from the terminal. The session
stays open, so expired tokens are renewed in place. Type 'help' for commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connect(cmd.Context())
		if err != nil {
			return err
		}

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "ess> ",
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return fmt.Errorf("failed to create readline: %w", err)
		}
		defer rl.Close()

		sh := &shell{client: client, out: rl.Stdout(), now: time.Now}
		sh.run(cmd.Context(), rl)
		return nil
	},
}

// shell dispatches interactive commands against one client.
type shell struct {
	client *api.Client
	out    io.Writer
	now    func() time.Time
}

func (s *shell) run(ctx context.Context, rl *readline.Instance) {
	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}
		if !s.exec(ctx, line) {
			fmt.Fprintln(s.out, "Exiting...")
			return
		}
	}
}

// exec runs one command line and reports whether the shell should continue.
func (s *shell) exec(ctx context.Context, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "state", "s":
		s.cmdState(ctx, args)
	case "graph", "g":
		s.cmdGraph(ctx, args)
	case "on":
		s.report(s.client.SwitchOn(ctx), "operation started")
	case "off":
		s.report(s.client.SwitchOff(ctx), "operation stopped")
	case "status":
		fmt.Fprintln(s.out, describeSession(s.client))
	case "update":
		s.cmdUpdate(ctx)
	case "quit", "exit", "q":
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, `
ESS Shell Commands:
  state [category]          - Show state (network, systeminfo, batt, home, common; default home)
  graph <dev> <span> [date] - Show graph (dev: batt, load, pv; span: day, week, month, year)
  on | off                  - Start or stop battery operation
  status                    - Show session address, state and token
  update                    - Re-resolve the appliance address over mDNS
  help                      - Show this help
  quit                      - Exit`)
}

func (s *shell) cmdState(ctx context.Context, args []string) {
	category := api.CategoryHome
	if len(args) > 0 {
		c, err := api.ParseCategory(args[0])
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		category = c
	}
	doc, err := s.client.GetState(ctx, category)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.print(doc)
}

func (s *shell) cmdGraph(ctx context.Context, args []string) {
	device, timespan, date, err := parseGraphArgs(args, s.now())
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	doc, err := s.client.GetGraph(ctx, device, timespan, date)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.print(doc)
}

func (s *shell) cmdUpdate(ctx context.Context) {
	browser, err := newBrowser()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if err := s.client.UpdateAddress(ctx, browser); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, describeSession(s.client))
}

func (s *shell) report(err error, ok string) {
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, ok)
}

func (s *shell) print(v any) {
	if err := render(s.out, v); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}
