package cmd

import (
	"log"

	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/message"
	"github.com/spf13/cobra"
)

var userID string

var registerUserCmd = &cobra.Command{
	Use:   "register-user",
	Short: "Register a new user bound to your account",
	Run: func(cmd *cobra.Command, args []string) {
		parsed, err := id.ParseID(userID)
		if err != nil {
			log.Fatal(err)
		}

		submitMessage(message.RegisterUser{UserID: parsed})
	},
}

var unregisterUserCmd = &cobra.Command{
	Use:   "unregister-user",
	Short: "Unregister a user and permanently retire its id",
	Run: func(cmd *cobra.Command, args []string) {
		parsed, err := id.ParseID(userID)
		if err != nil {
			log.Fatal(err)
		}

		submitMessage(message.UnregisterUser{UserID: parsed})
	},
}

func init() {
	rootCmd.AddCommand(registerUserCmd, unregisterUserCmd)

	for _, cmd := range []*cobra.Command{registerUserCmd, unregisterUserCmd} {
		addTxFlags(cmd)
		cmd.Flags().StringVarP(&userID, "user", "i", "", "Id of the user.")
	}
}
