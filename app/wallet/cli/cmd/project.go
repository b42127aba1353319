package cmd

import (
	"log"

	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/message"
	"github.com/spf13/cobra"
)

var (
	projectName  string
	domainKind   string
	domainID     string
	checkpointID string
	metadata     []byte
)

// parseDomain builds the project domain from the kind/id flags.
func parseDomain() id.ProjectDomain {
	parsed, err := id.ParseID(domainID)
	if err != nil {
		log.Fatal(err)
	}

	domain := id.ProjectDomain{Kind: id.DomainKind(domainKind), ID: parsed}
	if err := domain.Validate(); err != nil {
		log.Fatal(err)
	}

	return domain
}

var registerProjectCmd = &cobra.Command{
	Use:   "register-project",
	Short: "Register a project under an org or user domain",
	Run: func(cmd *cobra.Command, args []string) {
		name, err := id.ParseProjectName(projectName)
		if err != nil {
			log.Fatal(err)
		}

		meta, err := id.ParseBytes128(metadata)
		if err != nil {
			log.Fatal(err)
		}

		submitMessage(message.RegisterProject{
			ProjectName:   name,
			ProjectDomain: parseDomain(),
			CheckpointID:  checkpointID,
			Metadata:      meta,
		})
	},
}

var setCheckpointCmd = &cobra.Command{
	Use:   "set-checkpoint",
	Short: "Move a project's current checkpoint",
	Run: func(cmd *cobra.Command, args []string) {
		name, err := id.ParseProjectName(projectName)
		if err != nil {
			log.Fatal(err)
		}

		submitMessage(message.SetCheckpoint{
			ProjectName:     name,
			ProjectDomain:   parseDomain(),
			NewCheckpointID: checkpointID,
		})
	},
}

func init() {
	rootCmd.AddCommand(registerProjectCmd, setCheckpointCmd)

	for _, cmd := range []*cobra.Command{registerProjectCmd, setCheckpointCmd} {
		addTxFlags(cmd)
		cmd.Flags().StringVarP(&projectName, "name", "m", "", "Name of the project.")
		cmd.Flags().StringVarP(&domainKind, "kind", "k", "org", "Domain kind, org or user.")
		cmd.Flags().StringVarP(&domainID, "domain", "d", "", "Id of the owning org or user.")
		cmd.Flags().StringVarP(&checkpointID, "checkpoint", "t", "", "Id of the checkpoint.")
	}

	registerProjectCmd.Flags().BytesHexVarP(&metadata, "metadata", "e", nil, "Opaque project metadata in hex.")
}
