package cmd

import (
	"log"

	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/message"
	"github.com/spf13/cobra"
)

var orgID string

var registerOrgCmd = &cobra.Command{
	Use:   "register-org",
	Short: "Register a new org with your account as the founding member",
	Run: func(cmd *cobra.Command, args []string) {
		parsed, err := id.ParseID(orgID)
		if err != nil {
			log.Fatal(err)
		}

		submitMessage(message.RegisterOrg{OrgID: parsed})
	},
}

var unregisterOrgCmd = &cobra.Command{
	Use:   "unregister-org",
	Short: "Unregister an org and permanently retire its id",
	Run: func(cmd *cobra.Command, args []string) {
		parsed, err := id.ParseID(orgID)
		if err != nil {
			log.Fatal(err)
		}

		submitMessage(message.UnregisterOrg{OrgID: parsed})
	},
}

var registerMemberCmd = &cobra.Command{
	Use:   "register-member",
	Short: "Add an existing user to an org's member set",
	Run: func(cmd *cobra.Command, args []string) {
		org, err := id.ParseID(orgID)
		if err != nil {
			log.Fatal(err)
		}

		user, err := id.ParseID(userID)
		if err != nil {
			log.Fatal(err)
		}

		submitMessage(message.RegisterMember{OrgID: org, UserID: user})
	},
}

func init() {
	rootCmd.AddCommand(registerOrgCmd, unregisterOrgCmd, registerMemberCmd)

	for _, cmd := range []*cobra.Command{registerOrgCmd, unregisterOrgCmd, registerMemberCmd} {
		addTxFlags(cmd)
		cmd.Flags().StringVarP(&orgID, "org", "o", "", "Id of the org.")
	}

	registerMemberCmd.Flags().StringVarP(&userID, "user", "i", "", "Id of the user to add.")
}
