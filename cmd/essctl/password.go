package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lgess-community/ess-go/pkg/session"
)

var factoryAddress string

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Read the appliance password over its provisioning Wi-Fi",
	Long: `Password reads the login password from the appliance. This only works
while this machine is connected to the Wi-Fi network the appliance itself
provides (the address is then 192.168.23.1).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := session.ReadFactoryPassword(cmd.Context(), nil, factoryAddress)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), pw)
		return nil
	},
}

func init() {
	passwordCmd.Flags().StringVar(&factoryAddress, "factory-address", session.FactoryAddress, "Appliance address on its provisioning network")
}
