package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Manage file attachments",
}

var attachAddCmd = &cobra.Command{
	Use:   "add <definition-id> <instance-id> <field> <file>",
	Short: "Upload a file and attach it to an instance field",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[3]
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		contentType, _ := cmd.Flags().GetString("content-type")
		if contentType == "" {
			contentType = mime.TypeByExtension(filepath.Ext(path))
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		att, err := client.AddAttachment(cmdContext(cmd), args[0], args[1], args[2], filepath.Base(path), contentType, content)
		if err != nil {
			return fmt.Errorf("failed to add attachment: %w", err)
		}

		if jsonOutput {
			printJSON(att)
		} else {
			fmt.Printf("Attached %s (%d bytes) as %s\n", att.Name, att.Size, att.ID)
		}
		return nil
	},
}

var attachRemoveCmd = &cobra.Command{
	Use:   "rm <instance-id> <attachment-id>",
	Short: "Remove an attachment from an instance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.RemoveAttachment(cmdContext(cmd), args[0], args[1]); err != nil {
			return fmt.Errorf("failed to remove attachment: %w", err)
		}
		fmt.Printf("Removed %s\n", args[1])
		return nil
	},
}

func init() {
	attachAddCmd.Flags().String("content-type", "", "MIME type (default: guessed from the file extension)")
	attachCmd.AddCommand(attachAddCmd)
	attachCmd.AddCommand(attachRemoveCmd)
}
