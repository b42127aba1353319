package cmd

import (
	"log"

	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/message"
	"github.com/spf13/cobra"
)

var (
	recipient string
	amount    uint64
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer funds from your account to a recipient",
	Run: func(cmd *cobra.Command, args []string) {
		to, err := id.ToAccountID(recipient)
		if err != nil {
			log.Fatal(err)
		}

		submitMessage(message.Transfer{Recipient: to, Amount: amount})
	},
}

var transferFromOrgCmd = &cobra.Command{
	Use:   "transfer-from-org",
	Short: "Transfer funds from an org's pooled account to a recipient",
	Run: func(cmd *cobra.Command, args []string) {
		org, err := id.ParseID(orgID)
		if err != nil {
			log.Fatal(err)
		}

		to, err := id.ToAccountID(recipient)
		if err != nil {
			log.Fatal(err)
		}

		submitMessage(message.TransferFromOrg{OrgID: org, Recipient: to, Amount: amount})
	},
}

func init() {
	rootCmd.AddCommand(transferCmd, transferFromOrgCmd)

	for _, cmd := range []*cobra.Command{transferCmd, transferFromOrgCmd} {
		addTxFlags(cmd)
		cmd.Flags().StringVarP(&recipient, "to", "t", "", "Account of the recipient.")
		cmd.Flags().Uint64VarP(&amount, "value", "v", 0, "Amount to transfer.")
	}

	transferFromOrgCmd.Flags().StringVarP(&orgID, "org", "o", "", "Id of the org to draw from.")
}
