package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/var1ableX/langconnect-client/internal/processor"
)

func newDocumentsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"document", "docs"},
		Short:   "manage documents inside a collection",
	}
	cmd.AddCommand(
		newUploadCmd(opts),
		newDocumentListCmd(opts),
		newDocumentGetCmd(opts),
		newDocumentDeleteCmd(opts),
		newDocumentDeleteManyCmd(opts),
	)
	return cmd
}

func newUploadCmd(opts *rootOptions) *cobra.Command {
	var (
		contentType  string
		metadata     string
		chunkSize    int
		chunkOverlap int
		fromStore    bool
		archive      bool
	)
	cmd := &cobra.Command{
		Use:   "upload <collection-id> <file>...",
		Short: "parse, chunk, embed and store files",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			meta, err := parseJSONObject("metadata", metadata)
			if err != nil {
				return err
			}
			if (fromStore || archive) && a.files == nil {
				return fmt.Errorf("file store is not configured")
			}
			files := make([]processor.File, 0, len(args)-1)
			for _, name := range args[1:] {
				var data []byte
				if fromStore {
					data, err = readFromStore(cmd, a, name)
				} else {
					data, err = os.ReadFile(name)
				}
				if err != nil {
					return fmt.Errorf("read %s: %w", name, err)
				}
				files = append(files, processor.File{
					Name:        filepath.Base(name),
					ContentType: contentType,
					Data:        data,
				})
			}
			docs := a.documents
			if archive {
				docs = docs.WithArchive(a.files)
			}
			procOpts := processor.Options{ChunkSize: chunkSize, Metadata: meta}
			if cmd.Flags().Changed("chunk-overlap") {
				procOpts.ChunkOverlap = processor.Overlap(chunkOverlap)
			}
			results, err := docs.Ingest(cmd.Context(), opts.ownerID, args[0], files, procOpts)
			if err != nil {
				if len(results) > 0 {
					_ = writeJSON(cmd, results)
				}
				return err
			}
			return writeJSON(cmd, results)
		}),
	}
	cmd.Flags().StringVar(&contentType, "content-type", processor.MIMEOctet, "content type of every file; the default picks by extension")
	cmd.Flags().StringVar(&metadata, "metadata", "", "metadata merged into every chunk, as a JSON object")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "characters per chunk (default from config)")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 0, "characters shared by neighbouring chunks, 0 for none (default from config)")
	cmd.Flags().BoolVar(&fromStore, "from-store", false, "read files from the configured file store instead of local disk")
	cmd.Flags().BoolVar(&archive, "archive", false, "keep a copy of each file in the configured file store")
	return cmd
}

func readFromStore(cmd *cobra.Command, a *app, key string) ([]byte, error) {
	rc, err := a.files.Open(cmd.Context(), key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func newDocumentListCmd(opts *rootOptions) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list <collection-id>",
		Short: "list chunks ordered by file id",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			items, err := a.documents.List(cmd.Context(), opts.ownerID, args[0], limit, offset)
			if err != nil {
				return err
			}
			return writeJSON(cmd, items)
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	return cmd
}

func newDocumentGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <collection-id> <document-id>",
		Short: "show one chunk",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			item, err := a.documents.Get(cmd.Context(), opts.ownerID, args[0], args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd, item)
		}),
	}
}

func newDocumentDeleteCmd(opts *rootOptions) *cobra.Command {
	var fileID, documentID string
	cmd := &cobra.Command{
		Use:   "delete <collection-id>",
		Short: "delete one chunk or every chunk of one file",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			deleted, err := a.documents.Delete(cmd.Context(), opts.ownerID, args[0], fileID, documentID)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]bool{"deleted": deleted})
		}),
	}
	cmd.Flags().StringVar(&fileID, "file-id", "", "delete all chunks of this file")
	cmd.Flags().StringVar(&documentID, "document-id", "", "delete this chunk")
	return cmd
}

func newDocumentDeleteManyCmd(opts *rootOptions) *cobra.Command {
	var documentIDs, fileIDs []string
	cmd := &cobra.Command{
		Use:   "delete-many <collection-id>",
		Short: "delete chunks by id list and file id list",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			n, err := a.documents.DeleteMany(cmd.Context(), opts.ownerID, args[0], documentIDs, fileIDs)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]int64{"deleted": n})
		}),
	}
	cmd.Flags().StringSliceVar(&documentIDs, "document-ids", nil, "chunk ids to delete")
	cmd.Flags().StringSliceVar(&fileIDs, "file-ids", nil, "file ids whose chunks are deleted")
	return cmd
}
