// Package dataset defines the fixed layout of the code-summarization
// evaluation dataset that jsonlprune operates on: where the files live,
// which files are targeted, and which record fields survive a prune.
package dataset

// Dir is the dataset directory, relative to the working directory the
// tool is invoked from.
const Dir = "data/code-summarization"

// Pattern is the filename glob matched inside Dir.
const Pattern = "*.jsonl"

// Fields returns the record keys retained by the prune pass. Rewritten
// records emit their keys in this order. The returned slice is a fresh
// copy on every call so callers cannot mutate the whitelist.
func Fields() []string {
	return []string{
		"task",
		"lang",
		"url",
		"prompt_category",
		"prompt_id",
		"model_name",
		"metrics",
	}
}
