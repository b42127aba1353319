// Package cmd contains the commands for the wallet cli.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/registrychain/registry/foundation/registry/database"
	"github.com/registrychain/registry/foundation/registry/message"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	url         string
	chainID     uint16
	nonce       uint64
	feeBid      uint64
)

const keyExtension = ".ecdsa"

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "A wallet for the registry chain",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	if !strings.HasSuffix(accountName, keyExtension) {
		accountName += keyExtension
	}

	return filepath.Join(accountPath, accountName)
}

// addTxFlags registers the flags every transaction command needs.
func addTxFlags(cmd *cobra.Command) {
	cmd.Flags().Uint16VarP(&chainID, "chain", "c", 1, "Chain id the transaction is for.")
	cmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Current nonce of the sending account.")
	cmd.Flags().Uint64VarP(&feeBid, "fee", "f", 0, "Fee bid for the transaction.")
}

// submitMessage signs the message with the wallet key and posts it to
// the configured node.
func submitMessage(msg message.Message) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	tx, err := database.NewTx(chainID, nonce, feeBid, msg)
	if err != nil {
		log.Fatal(err)
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.Marshal(signedTx)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	io.Copy(os.Stdout, resp.Body)
	fmt.Println()
}
