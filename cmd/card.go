package cmd

import (
	"github.com/pomyannik/pomyannik/client"
	"github.com/pomyannik/pomyannik/pkg/clierr"
	"github.com/pomyannik/pomyannik/pkg/media"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// cardCmd groups the card commands.
func cardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage the cards of a folder",
	}

	cmd.AddCommand(cardAddCmd(a), cardUpdateCmd(a), cardDeleteCmd(a))

	return cmd
}

func cardAddCmd(a *app) *cobra.Command {
	var description, imagePath string

	cmd := &cobra.Command{
		Use:   "add [folderID]",
		Short: "Add a card to a folder",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			folderID, err := parseID("folder", args[0])
			if err != nil {
				return err
			}
			img, err := loadImage(imagePath)
			if err != nil {
				return err
			}
			card, err := a.api.CreateCard(cmd.Context(), folderID, description, img)
			if err != nil {
				return err
			}
			invalidateFolderCache(cmd.Context(), a)
			cmd.Printf("Added card %d to folder %d.\n", card.ID, folderID)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&description, "description", "m", "", "Text of the card")
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Path of a photo to attach")
	markRequired(cmd, "description")

	return cmd
}

func cardUpdateCmd(a *app) *cobra.Command {
	var description, imagePath string

	cmd := &cobra.Command{
		Use:   "update [folderID] [cardID]",
		Short: "Change the text or photo of a card",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			folderID, cardID, err := parseCardArgs(args)
			if err != nil {
				return err
			}
			img, err := loadImage(imagePath)
			if err != nil {
				return err
			}
			if _, err := a.api.UpdateCard(cmd.Context(), folderID, cardID, description, img); err != nil {
				return err
			}
			invalidateFolderCache(cmd.Context(), a)
			cmd.Printf("Card %d updated.\n", cardID)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&description, "description", "m", "", "New text of the card")
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Path of a new photo")

	return cmd
}

func cardDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [folderID] [cardID]",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			folderID, cardID, err := parseCardArgs(args)
			if err != nil {
				return err
			}
			if err := a.api.DeleteCard(cmd.Context(), folderID, cardID); err != nil {
				return err
			}
			invalidateFolderCache(cmd.Context(), a)
			cmd.Printf("Card %d deleted.\n", cardID)
			return nil
		}),
	}
}

func parseCardArgs(args []string) (folderID, cardID int, err error) {
	if folderID, err = parseID("folder", args[0]); err != nil {
		return 0, 0, err
	}
	if cardID, err = parseID("card", args[1]); err != nil {
		return 0, 0, err
	}
	return folderID, cardID, nil
}

// loadImage reads the photo at path. An empty path means no photo.
func loadImage(path string) (*client.Image, error) {
	if path == "" {
		return nil, nil
	}
	img, err := media.LoadImage(path)
	if err != nil {
		return nil, clierr.New(clierr.Validation, err.Error(), err)
	}
	log.Debug().Str("file", img.FileName).Str("type", img.ContentType).Int64("size", img.Size).
		Str("sha256", img.SHA256).Msg("Loaded image")
	return &client.Image{FileName: img.FileName, ContentType: img.ContentType, Data: img.Data}, nil
}

func markRequired(cmd *cobra.Command, name string) {
	if err := cmd.MarkFlagRequired(name); err != nil {
		log.Error().Err(err).Msgf("Failed to mark '%s' flag as required", name)
	}
}
