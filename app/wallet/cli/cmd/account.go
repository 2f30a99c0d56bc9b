package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/nikakhov/bitshares-toolkit/foundation/wallet"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the account id for the wallet",
	Run:   accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) {
	w, err := wallet.Open(getPrivateKeyPath(), nil)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(w.AccountID())
}
