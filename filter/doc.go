// Package filter selects games from a library.
//
// The primary search is a mapping from field name to regular expression.
// Each pattern must match at the start of the field's text (it need not
// match the whole value), and the pairs are combined with all or any
// semantics:
//
//	preds, err := filter.CompilePredicates(map[string]string{
//		"abbr":  "(?i)gcn",
//		"title": "(?i)mario",
//	})
//	if err != nil {
//		return err
//	}
//	ok := preds.MatchesAll(rec)
//
// A missing field never matches and never errors. Integer and boolean values
// are matched against their decimal / "true"/"false" text.
//
// Expressions written in the expr language (github.com/expr-lang/expr) are
// also supported, with record fields available as variables:
//
//	f, err := filter.NewCompiler().Compile(`status == "Beaten" and abbr in ["GCN", "PS2"]`)
//
// Presets bundle either form under a name, and FindTitles ranks games by a
// fuzzy match against their titles.
package filter
