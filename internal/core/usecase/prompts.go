package usecase

import "fmt"

// buildDocPrompt frames one source file for documentation generation. The
// "### Purpose" section heading matters downstream: the README workflow
// extracts the purpose excerpt from each saved document by that marker.
func buildDocPrompt(fileName, projectContext, fileContent string) string {
	return fmt.Sprintf(`You are a senior engineer writing internal technical documentation.
Analyze the following source file with the depth of a thorough code review.

FILE: %s

PROJECT CONTEXT (file tree):
%s

SOURCE CODE:
%s

Produce a Markdown document with these sections:

### Purpose
What this file does, where it fits in the architecture, what problem it solves (2-3 sentences).

### Architecture & Design
Design patterns used, how this component interacts with the rest of the system.

### Key Components
A Markdown table (Component | Type | Description) covering every important type, function and constant.

### Internal Logic & Flow
The main execution flow step by step; algorithms, caching, retries, state transitions.

### Dependencies & Integration
Internal and external dependencies, data flow, integration points.

### Error Handling & Edge Cases
How errors are handled, fallbacks, behavior on empty or invalid input.

Rules: reference actual names from the code, document only what is actually
there, use proper Markdown, and return the raw Markdown content only with no
preamble.`, fileName, projectContext, fileContent)
}

// buildReadmePrompt frames the README synthesis from the project structure
// and the purpose summaries of previously analyzed files.
func buildReadmePrompt(projectStructure, summaries string) string {
	return fmt.Sprintf(`You are a senior technical writer producing a professional README.md.

PROJECT STRUCTURE:
%s

ANALYZED FILE SUMMARIES:
%s

Detect the technology stack from manifests and file extensions, infer build
and run commands, and identify the architecture pattern. Then produce a
complete README with: a title and one-line tagline, a short overview, an
architecture section (text diagram if the project has multiple components), a
tech-stack table, key features, getting-started instructions with exact
commands, a project-structure tree with short explanations, and contributing
plus license sections.

Rules: mention only technologies confirmed by the structure and summaries,
use fenced code blocks for all commands, and return the raw Markdown content
only with no preamble and without wrapping the output in a code block.`, projectStructure, summaries)
}
