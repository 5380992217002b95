package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lgess-community/ess-go/pkg/api"
)

// dateLayout is the date format accepted on the command line.
const dateLayout = "2006-01-02"

var stateCmd = &cobra.Command{
	Use:   "state [category...]",
	Short: "Show appliance state",
	Long: `State fetches one or more state documents. Categories:

  network     network settings
  systeminfo  model, serial and firmware versions
  batt        battery settings
  home        live power flow (default)
  common      operating values

With more than one category the output is keyed by category.`,
	ValidArgs: []string{"network", "systeminfo", "batt", "home", "common"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{string(api.CategoryHome)}
		}
		categories := make([]api.Category, 0, len(args))
		for _, a := range args {
			c, err := api.ParseCategory(a)
			if err != nil {
				return err
			}
			categories = append(categories, c)
		}

		client, err := connect(cmd.Context())
		if err != nil {
			return err
		}

		docs := make(map[api.Category]api.Document, len(categories))
		for _, c := range categories {
			doc, err := client.GetState(cmd.Context(), c)
			if err != nil {
				return err
			}
			docs[c] = doc
		}
		if len(categories) == 1 {
			return render(cmd.OutOrStdout(), docs[categories[0]])
		}
		return render(cmd.OutOrStdout(), docs)
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph <batt|load|pv> <day|week|month|year> [date]",
	Short: "Show graph data",
	Long: `Graph fetches the energy graph of a device for the timespan containing
date (YYYY-MM-DD, default today).`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		device, timespan, date, err := parseGraphArgs(args, time.Now())
		if err != nil {
			return err
		}

		client, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		doc, err := client.GetGraph(cmd.Context(), device, timespan, date)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), doc)
	},
}

// parseGraphArgs parses "<device> <timespan> [date]".
func parseGraphArgs(args []string, now time.Time) (api.GraphDevice, api.Timespan, time.Time, error) {
	if len(args) < 2 || len(args) > 3 {
		return "", "", time.Time{}, fmt.Errorf("usage: <device> <timespan> [date]")
	}
	device, err := api.ParseGraphDevice(args[0])
	if err != nil {
		return "", "", time.Time{}, err
	}
	timespan, err := api.ParseTimespan(args[1])
	if err != nil {
		return "", "", time.Time{}, err
	}
	date := now
	if len(args) == 3 {
		date, err = time.ParseInLocation(dateLayout, args[2], time.Local)
		if err != nil {
			return "", "", time.Time{}, fmt.Errorf("invalid date %q (want %s): %w", args[2], dateLayout, err)
		}
	}
	return device, timespan, date, nil
}

var switchCmd = &cobra.Command{
	Use:       "switch <on|off>",
	Short:     "Start or stop battery operation",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseSwitchArg(args[0])
		if err != nil {
			return err
		}

		client, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		if on {
			err = client.SwitchOn(cmd.Context())
		} else {
			err = client.SwitchOff(cmd.Context())
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "operation %s\n", map[bool]string{true: "started", false: "stopped"}[on])
		return nil
	},
}

func parseSwitchArg(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "start":
		return true, nil
	case "off", "stop":
		return false, nil
	default:
		return false, fmt.Errorf("invalid switch argument %q (use on or off)", s)
	}
}
