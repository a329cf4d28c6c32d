// Package parser extracts and decodes [PROCESS_UPDATE] blocks embedded
// in free-form agent narration. Unrecognized keys are skipped, never
// rejected: the upstream producer is a free-running agent that cannot
// be asked to retry.
package parser

import (
	"fmt"
	"strings"

	"github.com/Hysas/procside/internal/domain"
)

// StartMarker and EndMarker delimit one update block in raw text.
const (
	StartMarker = "[PROCESS_UPDATE]"
	EndMarker   = "[/PROCESS_UPDATE]"
)

// ExtractBlocks returns the trimmed contents of every complete
// start/end marker pair, in order of appearance. A start marker with
// no matching end marker yields nothing and stops extraction: blocks
// are never emitted partially.
func ExtractBlocks(text string) []string {
	var blocks []string
	for {
		start := strings.Index(text, StartMarker)
		if start < 0 {
			return blocks
		}
		rest := text[start+len(StartMarker):]
		end := strings.Index(rest, EndMarker)
		if end < 0 {
			return blocks
		}
		blocks = append(blocks, strings.TrimSpace(rest[:end]))
		text = rest[end+len(EndMarker):]
	}
}

// ParseAll extracts and decodes every update block found in text, one
// update per block, in document order.
func ParseAll(text string) []domain.Update {
	blocks := ExtractBlocks(text)
	updates := make([]domain.Update, 0, len(blocks))
	for _, block := range blocks {
		updates = append(updates, ParseBlock(block))
	}
	return updates
}

// decodeMode tags where the line decoder currently sits in the block.
type decodeMode int

const (
	// modeTop consumes top-level `key: value` lines.
	modeTop decodeMode = iota
	// modeRecord consumes indented fields of a step/decision/risk record.
	modeRecord
	// modeEvidence consumes `- type:` / `value:` evidence list entries.
	modeEvidence
)

// blockDecoder is the line-by-line state for decoding one block.
type blockDecoder struct {
	update domain.Update

	mode         decodeMode
	record       string // active nested record key: step, decision, or risk
	recordIndent int
	listIndent   int
	list         *[]string // active `- item` collector, top-level or in-record
}

// ParseBlock decodes one raw block into an update. A block without a
// recognized action decodes to a process_update, which the reducer
// treats as a timestamp-only refresh unless a status is present.
func ParseBlock(block string) domain.Update {
	d := blockDecoder{}
	for _, line := range strings.Split(block, "\n") {
		d.consume(line)
	}
	if !domain.KnownAction(d.update.Action) {
		d.update.Action = domain.ActionProcessUpdate
	}
	return d.update
}

func (d *blockDecoder) consume(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	indent := len(line) - len(strings.TrimLeft(line, " \t"))

	// Dedent past the evidence key closes the evidence list.
	if d.mode == modeEvidence && indent < d.listIndent {
		d.mode = modeTop
	}
	// Dedent to (or past) the record key closes the record, unless the
	// line is a list item continuing an in-record list.
	if d.mode == modeRecord && indent <= d.recordIndent && !strings.HasPrefix(trimmed, "-") {
		d.mode = modeTop
		d.record = ""
	}

	if item, ok := strings.CutPrefix(trimmed, "- "); ok && d.list != nil && d.mode != modeEvidence {
		*d.list = append(*d.list, item)
		return
	}

	if d.mode == modeEvidence {
		d.consumeEvidenceLine(trimmed)
		return
	}

	key, value, ok := splitKeyValue(trimmed)
	if !ok {
		return
	}

	if d.mode == modeRecord {
		d.consumeRecordField(key, value)
		return
	}
	d.consumeTopLevel(key, value, indent)
}

func (d *blockDecoder) consumeTopLevel(key, value string, indent int) {
	switch key {
	case "process_id":
		d.update.ProcessID = value
	case "action":
		d.update.Action = domain.Action(value)
	case "step_id":
		d.update.StepID = value
	case "status":
		d.update.Status = value
	case "outputs":
		d.update.Outputs = []string{}
		d.list = &d.update.Outputs
	case "missing":
		d.update.Missing = []string{}
		d.list = &d.update.Missing
	case "evidence":
		d.update.Evidence = []domain.Evidence{}
		d.list = nil
		d.mode = modeEvidence
		d.listIndent = indent
	case "step":
		d.update.Step = &domain.StepDraft{}
		d.startRecord("step", indent)
	case "decision":
		d.update.Decision = &domain.DecisionDraft{}
		d.startRecord("decision", indent)
	case "risk":
		d.update.Risk = &domain.RiskDraft{}
		d.startRecord("risk", indent)
	}
}

func (d *blockDecoder) startRecord(key string, indent int) {
	d.mode = modeRecord
	d.record = key
	d.recordIndent = indent
	d.list = nil
}

func (d *blockDecoder) consumeRecordField(key, value string) {
	switch d.record {
	case "step":
		s := d.update.Step
		switch key {
		case "id":
			s.ID = value
		case "name":
			s.Name = value
		case "description":
			s.Description = value
		case "status":
			s.Status = value
		case "inputs":
			s.Inputs = []string{}
			d.list = &s.Inputs
		case "outputs":
			s.Outputs = []string{}
			d.list = &s.Outputs
		case "checks":
			s.Checks = []string{}
			d.list = &s.Checks
		}
	case "decision":
		dec := d.update.Decision
		switch key {
		case "id":
			dec.ID = value
		case "question":
			dec.Question = value
		case "choice":
			dec.Choice = value
		case "rationale":
			dec.Rationale = value
		case "options":
			dec.Options = splitCommaList(value)
		}
	case "risk":
		r := d.update.Risk
		switch key {
		case "id":
			r.ID = value
		case "risk":
			r.Risk = value
		case "impact":
			r.Impact = value
		case "mitigation":
			r.Mitigation = value
		}
	}
}

// consumeEvidenceLine handles one `- type: <t>` or `value: <v>` line.
// Each `- type:` opens a new entry; a bare `value:` fills the most
// recently opened one.
func (d *blockDecoder) consumeEvidenceLine(trimmed string) {
	trimmed = strings.TrimPrefix(trimmed, "- ")
	key, value, ok := splitKeyValue(trimmed)
	if !ok {
		return
	}
	switch key {
	case "type":
		d.update.Evidence = append(d.update.Evidence, domain.Evidence{Type: domain.EvidenceType(value)})
	case "value":
		if n := len(d.update.Evidence); n > 0 {
			d.update.Evidence[n-1].Value = value
		}
	}
}

func splitKeyValue(s string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(s, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}

func splitCommaList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FormatBlock renders an update back into wire form. It is the inverse
// of ParseBlock for the round-tripping fields: action, step id, status,
// outputs, evidence, decision, risk, and missing all survive a
// format/parse cycle unchanged.
func FormatBlock(u domain.Update) string {
	var b strings.Builder
	b.WriteString(StartMarker + "\n")
	if u.ProcessID != "" {
		fmt.Fprintf(&b, "process_id: %s\n", u.ProcessID)
	}
	fmt.Fprintf(&b, "action: %s\n", u.Action)
	if u.StepID != "" {
		fmt.Fprintf(&b, "step_id: %s\n", u.StepID)
	}
	if u.Status != "" {
		fmt.Fprintf(&b, "status: %s\n", u.Status)
	}
	writeList(&b, "outputs", u.Outputs)
	if len(u.Evidence) > 0 {
		b.WriteString("evidence:\n")
		for _, e := range u.Evidence {
			fmt.Fprintf(&b, "  - type: %s\n", e.Type)
			fmt.Fprintf(&b, "    value: %s\n", e.Value)
		}
	}
	if d := u.Decision; d != nil {
		b.WriteString("decision:\n")
		writeField(&b, "question", d.Question)
		writeField(&b, "choice", d.Choice)
		writeField(&b, "rationale", d.Rationale)
		if len(d.Options) > 0 {
			fmt.Fprintf(&b, "  options: %s\n", strings.Join(d.Options, ", "))
		}
	}
	if r := u.Risk; r != nil {
		b.WriteString("risk:\n")
		writeField(&b, "risk", r.Risk)
		writeField(&b, "impact", r.Impact)
		writeField(&b, "mitigation", r.Mitigation)
	}
	writeList(&b, "missing", u.Missing)
	b.WriteString(EndMarker)
	return b.String()
}

func writeList(b *strings.Builder, key string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(key + ":\n")
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

func writeField(b *strings.Builder, key, value string) {
	if value != "" {
		fmt.Fprintf(b, "  %s: %s\n", key, value)
	}
}
