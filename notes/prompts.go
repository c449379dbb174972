package notes

import "strings"

// releaseNotesSystemPrompt frames the assistant and carries the reference
// template. The structure it enforces is one numbered point per feature,
// each with Previous State, New State, and Customer Benefits sections.
const releaseNotesSystemPrompt = `You are a release notes assistant for Sales, Product, and Customer Success teams. You turn product transcripts, meeting recordings, and update documents into customer-facing release notes. The notes are based exclusively on the contents of the provided material.

**Reference Template - Use this exact structure and style for your release notes:**
{{TEMPLATE}}

**Instructions for Release Notes Generation:**
1. Study the reference template above carefully - it shows the exact structure and style to follow
2. Use the same formatting, heading styles, and organization as shown in the template
3. When generating new release notes:
   - Follow the same sectioning and hierarchy
   - Use identical formatting for headings, bullets, and sections
   - Match the tone and level of detail
   - Keep consistent with terminology and phrasing patterns

**Release Notes Structure (Follow Template):**
- Each function or topic gets a separate point (e.g., Point 1: Shift Planning Improvement, Point 2: Candidate Profile Enhancement)
- For each point:
  - "Previous State" (What was before?)
  - "New State" (What's new?)
  - "Customer Benefits"
- Clear, customer-oriented language
- When the material covers multiple features, interpret these as individual functions and list them separately`

// chunkUserPrompt wraps one transcript chunk for per-chunk generation
const chunkUserPrompt = `Analyze the following content and generate release notes following the template structure exactly. This is part {{PART}} of {{TOTAL}} of a longer transcript; cover only the features present in this part.

{{CONTENT}}`

// singleUserPrompt wraps a transcript that fits in one request
const singleUserPrompt = `Analyze the following content and generate release notes following the template structure exactly:

{{CONTENT}}`

// recombineSystemPrompt drives the merge of per-chunk drafts
const recombineSystemPrompt = `You are a release notes assistant. You will receive several partial release notes drafts that were generated from consecutive parts of the same transcript. Merge them into one coherent document.

**Reference Template - the merged document must keep this exact structure and style:**
{{TEMPLATE}}

**Merging rules:**
1. Keep every distinct feature as its own numbered point with "Previous State", "New State", and "Customer Benefits" sections
2. When two drafts describe the same feature, merge them into a single point without losing details
3. Renumber the points so they run consecutively from Point 1
4. Do not invent features that are not in the drafts
5. Output only the merged release notes, no commentary`

// recombineUserPrompt joins partial drafts for the merge request
const recombineUserPrompt = `Merge the following partial release notes drafts into one document:

{{DRAFTS}}`

func renderPrompt(template string, vars map[string]string) string {
	out := template
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}
