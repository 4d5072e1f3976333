package cmd

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pomyannik/pomyannik/client"
	"github.com/pomyannik/pomyannik/db"
	"github.com/pomyannik/pomyannik/pkg/clierr"
	"github.com/pomyannik/pomyannik/pkg/pool"
	"github.com/pomyannik/pomyannik/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// folderCmd groups the folder commands.
func folderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Manage your memorial folders",
	}

	cmd.AddCommand(
		folderListCmd(a),
		folderShowCmd(a),
		folderCreateCmd(a),
		folderRenameCmd(a),
		folderDeleteCmd(a),
		folderDownloadCmd(a),
	)

	return cmd
}

func folderListCmd(a *app) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your folders",
		Args:  cobra.NoArgs,
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			var records []db.FolderRecord
			if cached {
				var err error
				if records, err = a.folders.ListFolders(cmd.Context()); err != nil {
					return clierr.New(clierr.Internal, "Unable to read the local folder cache.", err)
				}
			} else {
				folders, err := a.api.ListFolders(cmd.Context())
				if err != nil {
					return err
				}
				records = folderRecords(folders)
				if err := a.folders.ReplaceFolders(cmd.Context(), records); err != nil {
					log.Warn().Err(err).Msg("Failed to update the folder cache")
				}
			}

			if len(records) == 0 {
				if cached {
					cmd.Println("No cached folders. Run 'pomyannik folder list' to fetch them.")
				} else {
					cmd.Println("You have no folders yet. Use 'pomyannik folder create' to add one.")
				}
				return nil
			}

			table := newTable(cmd.OutOrStdout(), "Folder ID", "Name")
			table.SetColMinWidth(1, 40)
			for _, f := range records {
				table.Append([]string{strconv.Itoa(f.ID), oneLine(f.Name)})
			}
			table.Render()
			log.Info().Msgf("Listed %d folders.", len(records))
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&cached, "cached", "c", false, "Show the folders saved by the last list without contacting the server")

	return cmd
}

func folderShowCmd(a *app) *cobra.Command {
	var all, cached bool
	var workers int

	cmd := &cobra.Command{
		Use:   "show [folderID]",
		Short: "Show the cards of a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			var ids []int
			switch {
			case all && len(args) > 0:
				return clierr.New(clierr.Validation, "Pass either a folder ID or --all, not both.", nil)
			case all && cached:
				records, err := a.folders.ListFolders(cmd.Context())
				if err != nil {
					return clierr.New(clierr.Internal, "Unable to read the local folder cache.", err)
				}
				for _, f := range records {
					ids = append(ids, f.ID)
				}
			case all:
				folders, err := a.api.ListFolders(cmd.Context())
				if err != nil {
					return err
				}
				for _, f := range folders {
					ids = append(ids, f.ID)
				}
			case len(args) == 1:
				id, err := parseID("folder", args[0])
				if err != nil {
					return err
				}
				ids = []int{id}
			default:
				return clierr.New(clierr.Validation, "A folder ID or --all is required.", nil)
			}
			if err := validation.ValidateWorkerCount(workers); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			if cached {
				return showCachedCards(cmd, a, ids)
			}

			details, err := fetchFolderDetails(cmd.Context(), a, ids, workers)
			if err != nil {
				return err
			}
			if len(details) == 0 {
				cmd.Println("You have no folders yet.")
				return nil
			}
			for _, d := range details {
				printFolderDetail(cmd, d)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show every folder")
	cmd.Flags().BoolVarP(&cached, "cached", "c", false, "Show the cards saved by the last show without contacting the server")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of folders to fetch concurrently with --all [1-20]")

	return cmd
}

// fetchFolderDetails loads the folders concurrently, keeping the order of ids,
// and refreshes their cached copies.
func fetchFolderDetails(ctx context.Context, a *app, ids []int, workers int) ([]*client.FolderDetail, error) {
	details, err := pool.Map(ctx, ids, workers, func(ctx context.Context, id int) (*client.FolderDetail, error) {
		return a.api.GetFolder(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	for _, d := range details {
		if err := a.folders.PutDetail(ctx, db.FolderRecord{ID: d.ID, Name: d.Name}, cardRecords(d.Cards)); err != nil {
			log.Warn().Err(err).Int("folder_id", d.ID).Msg("Failed to cache folder detail")
		}
	}
	return details, nil
}

func showCachedCards(cmd *cobra.Command, a *app, ids []int) error {
	records, err := a.folders.ListFolders(cmd.Context())
	if err != nil {
		return clierr.New(clierr.Internal, "Unable to read the local folder cache.", err)
	}
	names := make(map[int]string, len(records))
	for _, f := range records {
		names[f.ID] = f.Name
	}
	for _, id := range ids {
		cards, err := a.folders.ListCards(cmd.Context(), id)
		if err != nil {
			return clierr.New(clierr.Internal, "Unable to read the local folder cache.", err)
		}
		d := &client.FolderDetail{ID: id, Name: names[id]}
		for _, c := range cards {
			d.Cards = append(d.Cards, client.Card{ID: c.ID, FolderID: c.FolderID, FilePath: c.FilePath, Description: c.Description})
		}
		printFolderDetail(cmd, d)
	}
	return nil
}

func printFolderDetail(cmd *cobra.Command, d *client.FolderDetail) {
	cmd.Printf("Folder %d: %s\n", d.ID, d.Name)
	if len(d.Cards) == 0 {
		cmd.Println("  (no cards)")
		return
	}
	table := newTable(cmd.OutOrStdout(), "Card ID", "Description", "Image")
	for _, c := range d.Cards {
		table.Append([]string{strconv.Itoa(c.ID), oneLine(c.Description), c.FilePath})
	}
	table.Render()
}

func folderCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			f, err := a.api.CreateFolder(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			invalidateFolderCache(cmd.Context(), a)
			cmd.Printf("Created folder %d: %s\n", f.ID, f.Name)
			return nil
		}),
	}
}

func folderRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename [folderID] [name]",
		Short: "Rename a folder",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			id, err := parseID("folder", args[0])
			if err != nil {
				return err
			}
			f, err := a.api.UpdateFolder(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			invalidateFolderCache(cmd.Context(), a)
			cmd.Printf("Folder %d renamed to %s\n", f.ID, f.Name)
			return nil
		}),
	}
}

func folderDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [folderID]",
		Short: "Delete a folder and its cards",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			id, err := parseID("folder", args[0])
			if err != nil {
				return err
			}
			if err := a.api.DeleteFolder(cmd.Context(), id); err != nil {
				return err
			}
			invalidateFolderCache(cmd.Context(), a)
			cmd.Printf("Folder %d deleted.\n", id)
			return nil
		}),
	}
}

func folderDownloadCmd(a *app) *cobra.Command {
	var dir string
	var workers int
	var rate int64

	cmd := &cobra.Command{
		Use:   "download [folderID]",
		Short: "Download the images of a folder",
		Long:  "Download every card image of a folder into a sub-directory of --dir named after the folder",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			id, err := parseID("folder", args[0])
			if err != nil {
				return err
			}
			if err := validation.ValidateWorkerCount(workers); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			client.SetDownloadRateLimit(rate)

			d, err := a.api.GetFolder(cmd.Context(), id)
			if err != nil {
				return err
			}
			target := filepath.Join(dir, client.SanitizePath(d.Name))
			log.Info().Int("folder_id", id).Str("dir", target).Int("workers", workers).Msg("Downloading folder images")

			start := time.Now()
			results, err := client.DownloadCardImages(cmd.Context(), a.api.Executor(), d.Cards, target, workers, cmd.ErrOrStderr())
			var total int64
			for _, r := range results {
				total += r.Bytes
			}
			cmd.Printf("Saved %d of %d images (%s) to %s in %s\n",
				len(results), len(d.Cards), formatBytes(total), target, time.Since(start).Round(time.Millisecond))
			if err != nil {
				return clierr.New(clierr.Download, "Some images could not be downloaded. Run with DEBUG_POMYANNIK=1 for details.", err)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to save the images in")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of concurrent downloads [1-20]")
	cmd.Flags().Int64VarP(&rate, "rate", "r", 0, "Maximum download speed in bytes per second; 0 means unlimited")

	return cmd
}

func invalidateFolderCache(ctx context.Context, a *app) {
	if err := a.folders.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to clear the folder cache")
	}
}

func folderRecords(folders []client.Folder) []db.FolderRecord {
	records := make([]db.FolderRecord, 0, len(folders))
	for _, f := range folders {
		records = append(records, db.FolderRecord{ID: f.ID, Name: f.Name})
	}
	return records
}

func cardRecords(cards []client.Card) []db.CardRecord {
	records := make([]db.CardRecord, 0, len(cards))
	for _, c := range cards {
		records = append(records, db.CardRecord{ID: c.ID, FolderID: c.FolderID, FilePath: c.FilePath, Description: c.Description})
	}
	return records
}
