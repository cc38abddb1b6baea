// Package json5 parses JSON and JSON5 text into a concrete syntax tree that
// keeps comments, quoting style, trailing commas and whitespace, so a
// document can be edited in place and written back with every untouched
// byte intact.
//
// Plain JSON is a subset of JSON5 and parses with the same entry point:
//
//	doc, err := json5.Parse(src)
//	if err != nil {
//		se, _ := json5.AsSyntaxError(err)
//		...
//	}
//	v, _ := json5.ValueOf(42)
//	doc.Root.Set("answer", v)
//	out := doc.String()
package json5
