package cmd

import (
	"github.com/registrychain/registry/foundation/registry/message"
	"github.com/spf13/cobra"
)

var (
	projectHash string
	parentID    string
)

var createCheckpointCmd = &cobra.Command{
	Use:   "create-checkpoint",
	Short: "Append a new content-addressed checkpoint",
	Run: func(cmd *cobra.Command, args []string) {
		msg := message.CreateCheckpoint{
			ProjectHash: projectHash,
		}
		if parentID != "" {
			msg.PreviousCheckpointID = &parentID
		}

		submitMessage(msg)
	},
}

func init() {
	rootCmd.AddCommand(createCheckpointCmd)

	addTxFlags(createCheckpointCmd)
	createCheckpointCmd.Flags().StringVarP(&projectHash, "hash", "s", "", "Content hash the checkpoint asserts.")
	createCheckpointCmd.Flags().StringVarP(&parentID, "parent", "r", "", "Id of the parent checkpoint, if any.")
}
