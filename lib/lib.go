// Package lib embeds the source of the Standard module, which is loaded
// below every session before any other input is read.
package lib

import _ "embed"

//go:embed standard.hop
var Standard string
