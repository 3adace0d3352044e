package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobcraft/internal/security"
)

var validateURLCmd = &cobra.Command{
	Use:   "validate-url <url>...",
	Short: "Check URLs against the outbound request policy",
	Long: "Check that each URL uses http or https, names a host, and does not target " +
		"loopback, private, link-local or cloud metadata addresses. With --strict the " +
		"hostname is resolved and every address must be public.",
	Args: cobra.MinimumNArgs(1),
	RunE: runValidateURL,
}

var validateEmailCmd = &cobra.Command{
	Use:   "validate-email <address>...",
	Short: "Check email addresses for format and header injection",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidateEmail,
}

var strictDNS bool

func init() {
	validateURLCmd.Flags().BoolVar(&strictDNS, "strict", false, "Resolve hostnames and reject private addresses (default from scraper.strict_dns)")

	rootCmd.AddCommand(validateURLCmd)
	rootCmd.AddCommand(validateEmailCmd)
}

func runValidateURL(cmd *cobra.Command, args []string) error {
	validator := security.NewValidator(strictDNS || cfg.Scraper.StrictDNS)

	failed := 0
	for _, raw := range args {
		err := validator.ValidateURL(cmd.Context(), raw)
		if err != nil {
			failed++
		}
		report(cmd.OutOrStdout(), raw, err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d URLs rejected", failed, len(args))
	}
	return nil
}

func runValidateEmail(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, addr := range args {
		err := security.ValidateEmail(addr)
		if err != nil {
			failed++
		}
		report(cmd.OutOrStdout(), addr, err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d addresses rejected", failed, len(args))
	}
	return nil
}

// report prints one result line. Rejected inputs are printed with the
// failure category followed by the detail.
func report(w io.Writer, input string, err error) {
	input = security.SanitizeHeaderField(input)
	if err == nil {
		fmt.Fprintf(w, "ok        %s\n", input)
		return
	}

	var ve *security.ValidationError
	if errors.As(err, &ve) && ve.Err != nil {
		detail := ve.Reason
		if detail == "" {
			detail = "-"
		}
		fmt.Fprintf(w, "rejected  %s  [%v] %s\n", input, ve.Err, detail)
		return
	}
	fmt.Fprintf(w, "rejected  %s  %s\n", input, security.SanitizeForLogging(err.Error()))
}
