// Package stdlib installs the standard library. Nothing is available to
// scripts until it is registered on an interpreter.
package stdlib

import (
	"github.com/podhmo/vsharp"
	stdarrays "github.com/podhmo/vsharp/stdlib/arrays"
	stderror "github.com/podhmo/vsharp/stdlib/error"
	stdfile "github.com/podhmo/vsharp/stdlib/file"
	stdio "github.com/podhmo/vsharp/stdlib/io"
	stdjson "github.com/podhmo/vsharp/stdlib/json"
	stdmath "github.com/podhmo/vsharp/stdlib/math"
	stdobject "github.com/podhmo/vsharp/stdlib/object"
	stdstrings "github.com/podhmo/vsharp/stdlib/strings"
	stdsys "github.com/podhmo/vsharp/stdlib/sys"
	stdtime "github.com/podhmo/vsharp/stdlib/time"
)

// Install registers every standard library module with interp.
func Install(interp *vsharp.Interpreter) {
	stdio.Install(interp)
	stdmath.Install(interp)
	stdjson.Install(interp)
	stdobject.Install(interp)
	stdstrings.Install(interp)
	stdarrays.Install(interp)
	stdfile.Install(interp)
	stdtime.Install(interp)
	stdsys.Install(interp)
	stderror.Install(interp)
}
