package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
	"github.com/nikakhov/bitshares-toolkit/foundation/wallet"
)

var (
	url   string
	nonce uint
	to    string
	value uint64
	tip   uint64
	data  []byte
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and submit a transaction",
	Run: func(cmd *cobra.Command, args []string) {
		w, err := wallet.Open(getPrivateKeyPath(), nil)
		if err != nil {
			log.Fatal(err)
		}

		sendWithDetails(w)
	},
}

func sendWithDetails(w *wallet.Wallet) {
	toID, err := chain.ToAccountID(to)
	if err != nil {
		log.Fatal(err)
	}

	tx, err := chain.NewTx(nonce, toID, value, tip, data)
	if err != nil {
		log.Fatal(err)
	}

	signedTx, err := w.SignTx(tx)
	if err != nil {
		log.Fatal(err)
	}

	payload, err := json.Marshal(signedTx)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(payload))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	fmt.Println(resp.Status)
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	sendCmd.Flags().UintVarP(&nonce, "nonce", "n", 0, "Unique nonce for the transaction.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account to send to.")
	sendCmd.Flags().Uint64VarP(&value, "value", "v", 0, "Value to send.")
	sendCmd.Flags().Uint64VarP(&tip, "tip", "c", 0, "Tip to include.")
	sendCmd.Flags().BytesHexVarP(&data, "data", "d", nil, "Data to send.")
}
