package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/jmerrifield20/hashledger/pkg/client"
)

const separator = "------------------------------"

// humanTime renders t in local time, ctime style.
func humanTime(t time.Time) string {
	return t.Local().Format(time.ANSIC)
}

// renderRecords returns the records as indented JSON with readable timestamps.
func renderRecords(records []client.Record) string {
	type view struct {
		Payload  string `json:"payload"`
		StagedAt string `json:"staged_at"`
	}
	out := make([]view, len(records))
	for i, r := range records {
		out[i] = view{Payload: r.Payload, StagedAt: humanTime(r.StagedAt)}
	}
	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return fmt.Sprintf("<unprintable records: %v>", err)
	}
	return string(data)
}

func renderBlock(b client.Block) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d\n", pterm.Bold.Sprint("Index:"), b.Index)
	fmt.Fprintf(&sb, "%s %s\n", pterm.Bold.Sprint("Previous Hash:"), b.PreviousHash)
	fmt.Fprintf(&sb, "%s %s\n", pterm.Bold.Sprint("Timestamp:"), humanTime(b.Timestamp))
	fmt.Fprintf(&sb, "%s %s\n", pterm.Bold.Sprint("Data:"), renderRecords(b.Records))
	fmt.Fprintf(&sb, "%s %s\n", pterm.Bold.Sprint("Hash:"), pterm.FgCyan.Sprint(b.Hash))
	sb.WriteString(separator + "\n")
	return sb.String()
}

func renderChain(blocks []client.Block) string {
	if len(blocks) == 0 {
		return "The chain is empty.\n"
	}
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(renderBlock(b))
	}
	return sb.String()
}

func renderValidity(valid bool) string {
	if valid {
		return fmt.Sprintf("Is blockchain valid? %s", pterm.FgGreen.Sprint("true"))
	}
	return fmt.Sprintf("Is blockchain valid? %s", pterm.FgRed.Sprint("false"))
}
