package main

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// formatProcessText formats a change cycle report as readable text.
func formatProcessText(w io.Writer, r CLIProcessReport) {
	switch {
	case r.Bootstrap != nil:
		fmt.Fprintf(w, "Install root: %s\n", r.Bootstrap.InstallRoot)
		fmt.Fprintf(w, "Resources created: %d, skipped: %d\n", len(r.Bootstrap.Created), len(r.Bootstrap.Skipped))
	case r.BootstrapError != "":
		fmt.Fprintf(w, "Bootstrap failed: %s\n", r.BootstrapError)
	}
	fmt.Fprintf(w, "Imported: %d, deleted: %d, ignored: %d, failed: %d\n",
		len(r.Imported), len(r.Deleted), len(r.Ignored), len(r.Failures))

	if len(r.Failures) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "OP\tPATH\tERROR")
		for _, f := range r.Failures {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Op, f.Path, f.Error)
		}
		tw.Flush()
	}
}

// formatBootstrapText lists the resource files a bootstrap call touched.
func formatBootstrapText(w io.Writer, b *CLIBootstrap) {
	fmt.Fprintf(w, "Install root: %s\n", b.InstallRoot)
	fmt.Fprintf(w, "Resources: %s\n", b.ResourcesDir)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tPATH")
	for _, p := range b.Created {
		fmt.Fprintf(tw, "created\t%s\n", p)
	}
	for _, p := range b.Skipped {
		fmt.Fprintf(tw, "exists\t%s\n", p)
	}
	tw.Flush()
}

// formatPatchText formats a project patch report as aligned columns.
func formatPatchText(w io.Writer, r CLIPatchReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tFILE")
	for _, group := range []struct {
		status string
		paths  []string
	}{
		{"patched", r.Patched},
		{"unchanged", r.Unchanged},
		{"excluded", r.Excluded},
		{"failed", r.Failed},
	} {
		for _, p := range group.paths {
			fmt.Fprintf(tw, "%s\t%s\n", group.status, p)
		}
	}
	tw.Flush()
}

// formatClassificationsText formats classify results as aligned columns.
func formatClassificationsText(w io.Writer, cs []CLIClassification) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tPATH")
	for _, c := range cs {
		kind := c.Kind
		if !c.Known {
			kind = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", kind, c.Path)
	}
	tw.Flush()
}

// formatAssetsText formats ledger rows as aligned columns.
func formatAssetsText(w io.Writer, list []CLIAsset) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tSIZE\tIMPORTED\tPATH")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", a.Kind, a.Size, a.ImportedAt, a.Path)
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLIProcessReport:
		formatProcessText(w, v)
	case *CLIBootstrap:
		formatBootstrapText(w, v)
	case CLIPatchReport:
		formatPatchText(w, v)
	case []CLIClassification:
		formatClassificationsText(w, v)
	case []CLIAsset:
		formatAssetsText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}
