// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genocode/internal/store"
)

var consentCmd = &cobra.Command{
	Use:   "consent",
	Short: "Grant, revoke, or inspect a subject's consent",
	Long: `Consent records a subject's agreement to store their genotype data.
Imports require consent to the current consent version. Revoking consent
deletes the subject's stored genotype data and archived raw files; delete
also removes the consent record itself.`,
}

var consentGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Record consent for the current consent version",
	RunE:  runConsentGrant,
}

func runConsentGrant(cmd *cobra.Command, args []string) error {
	subject, err := subjectFlag(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	c, err := st.GrantConsent(context.Background(), subject, "")
	if err != nil {
		return err
	}
	fmt.Printf("Consent version %s granted for subject %s at %s\n",
		c.Version, c.Subject[:12], c.GrantedAt.Format("2006-01-02 15:04:05"))
	return nil
}

var consentRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke consent and delete the subject's genotype data",
	RunE: func(cmd *cobra.Command, args []string) error {
		return removeSubject(cmd, false)
	},
}

var consentDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete every record of the subject, consent included",
	RunE: func(cmd *cobra.Command, args []string) error {
		return removeSubject(cmd, true)
	},
}

func removeSubject(cmd *cobra.Command, all bool) error {
	subject, err := subjectFlag(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	svc, closeFn, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var n int
	if all {
		n, err = svc.Delete(ctx, subject)
	} else {
		n, err = svc.Revoke(ctx, subject)
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no consent recorded for this subject")
	}
	if err != nil {
		return err
	}
	if all {
		fmt.Printf("Subject deleted (%d upload(s) removed)\n", n)
	} else {
		fmt.Printf("Consent revoked (%d upload(s) removed)\n", n)
	}
	return nil
}

var consentStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the subject's consent and uploads",
	RunE:  runConsentStatus,
}

func runConsentStatus(cmd *cobra.Command, args []string) error {
	subject, err := subjectFlag(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	c, err := st.Consent(ctx, subject)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Println("No consent recorded.")
		return nil
	}
	if err != nil {
		return err
	}
	uploads, err := st.Uploads(ctx, subject)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"consent":         c,
			"current_version": st.ConsentVersion(),
			"uploads":         uploads,
		})
	}

	state := "active"
	switch {
	case !c.Active():
		state = "revoked " + c.RevokedAt.Format("2006-01-02 15:04:05")
	case c.Version != st.ConsentVersion():
		state = fmt.Sprintf("outdated (current version %s)", st.ConsentVersion())
	}
	fmt.Printf("Subject:  %s\n", c.Subject)
	fmt.Printf("Version:  %s\n", c.Version)
	fmt.Printf("Granted:  %s\n", c.GrantedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Status:   %s\n", state)
	fmt.Printf("Uploads:  %d\n", len(uploads))
	for _, u := range uploads {
		fmt.Printf("  %s  %-8s  %7d calls  %s\n", u.ID, u.Format, u.Calls, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{consentGrantCmd, consentRevokeCmd, consentDeleteCmd, consentStatusCmd} {
		c.Flags().String("subject", "", "subject identifier (or GENOCODE_SUBJECT)")
		consentCmd.AddCommand(c)
	}
	consentStatusCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(consentCmd)
}
