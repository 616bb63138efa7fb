package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
	"github.com/Mr-Dark-debug/odonto/internal/database"
	"github.com/Mr-Dark-debug/odonto/pkg/jsonutil"
	"github.com/Mr-Dark-debug/odonto/pkg/timeutil"
)

func (a *app) documentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"document", "docs"},
		Short:   "Record clinic documents and patient attachments",
		Long: `Keeps metadata about files: clinic protocols, forms, contracts and
manuals, and attachments such as radiographs tied to a patient or tooth.
Files stay where they are; only their path, type and size are recorded.`,
	}
	cmd.AddCommand(a.documentsAddCmd())
	cmd.AddCommand(a.documentsListCmd())
	return cmd
}

func (a *app) documentsAddCmd() *cobra.Command {
	var doc database.Document
	var tooth, category string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Record a document or patient attachment",
		Long: `Records a file. With --patient it becomes that patient's attachment,
optionally tied to one tooth with --tooth.

Categories: protocol, form, contract, manual, attachment, other.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.requireSession()
			if err != nil {
				return err
			}

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			if !info.Mode().IsRegular() {
				return fmt.Errorf("%s is not a regular file", args[0])
			}

			doc.Path = path
			doc.FileName = info.Name()
			doc.FileSize = info.Size()
			doc.FileType = mime.TypeByExtension(filepath.Ext(path))
			if doc.FileType == "" {
				doc.FileType = "application/octet-stream"
			}
			doc.Tooth = chart.ToothID(tooth)
			doc.Category = database.DocumentCategory(category)
			doc.CreatedBy = sess.Email

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.InsertDocument(&doc); err != nil {
				return err
			}
			a.logger.Info("document recorded",
				zap.String("document_id", doc.DocumentID), zap.String("patient_id", doc.PatientID),
				zap.Int64("size", doc.FileSize))
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s (%s, %s) as %s\n",
				doc.Title, doc.FileType, humanize.Bytes(uint64(doc.FileSize)), doc.DocumentID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&doc.PatientID, "patient", "", "Attach to this patient")
	f.StringVar(&tooth, "tooth", "", "Tie the attachment to a tooth (FDI number)")
	f.StringVar(&doc.Title, "title", "", "Title (default: the file name)")
	f.StringVar(&category, "category", "", "Category (default: attachment with --patient, other without)")
	f.StringVar(&doc.Description, "description", "", "Description")
	return cmd
}

func (a *app) documentsListCmd() *cobra.Command {
	var filter database.DocumentFilter
	var category string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded documents, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Category = database.DocumentCategory(category)

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			docs, err := store.ListDocuments(filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return jsonutil.Write(out, docs)
			}
			if len(docs) == 0 {
				fmt.Fprintln(out, "No documents found")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TITLE\tCATEGORY\tFILE\tSIZE\tPATIENT\tTOOTH\tUPLOADED")
			for _, d := range docs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					d.Title, d.Category, d.FileName, humanize.Bytes(uint64(d.FileSize)),
					orDash(d.PatientID), orDash(string(d.Tooth)), timeutil.FormatStamp(d.UploadedAt))
			}
			return w.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVar(&filter.PatientID, "patient", "", "Only this patient's attachments")
	f.BoolVar(&filter.ClinicOnly, "clinic", false, "Only clinic documents")
	f.StringVar(&category, "category", "", "Only this category")
	f.IntVar(&filter.Limit, "limit", 100, "Maximum number of documents")
	f.BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
