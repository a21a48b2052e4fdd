// Package program decodes and validates WEFT program documents.
//
// # Overview
//
// A program crosses into the core as a JSON document: an envelope with an
// optional program_id and a statements array, where each statement and each
// expression carries a type discriminator. Validate checks the envelope and
// statement shapes against a JSON Schema; Decode validates and then builds
// the ast.Program consumed by the graph builder.
//
// # Document shape
//
//	{
//	  "program_id": "demo",
//	  "statements": [
//	    {"kind": "instance", "name": "osc", "outputs": ["freq"],
//	     "expr": {"type": "num", "value": 440}},
//	    {"kind": "backend", "keyword": "display",
//	     "args": [{"type": "strand_access",
//	               "base": {"type": "var", "name": "osc"},
//	               "out": {"type": "var", "name": "freq"}}]}
//	  ]
//	}
package program
