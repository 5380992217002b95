package main

import (
	"github.com/spf13/cobra"

	"github.com/lgess-community/ess-go/pkg/discovery"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List appliances announced on the local network",
	Long: `Discover browses for _pmsctrl._tcp instances for the configured listen
window (discovery.listen_window, default 3s) and lists them sorted by name.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		browser, err := newBrowser()
		if err != nil {
			return err
		}
		all, err := browser.DiscoverAll(cmd.Context())
		if err != nil {
			return err
		}
		views := make([]advertisementView, 0, len(all))
		for _, adv := range all {
			views = append(views, newAdvertisementView(adv))
		}
		return render(cmd.OutOrStdout(), views)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [name]",
	Short: "Resolve an appliance name to its address",
	Long: `Resolve looks up LGE_ESS-<name> over mDNS and prints the advertisement.
The name defaults to --name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := cfg.Name
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return cmd.Usage()
		}

		browser, err := newBrowser()
		if err != nil {
			return err
		}
		adv, err := browser.Resolve(cmd.Context(), discovery.DeviceName(name))
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), newAdvertisementView(adv))
	},
}
