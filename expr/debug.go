package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// DebugString returns a compact single line representation of an
// expression or target, used in AST dumps and tests.
func DebugString(n Node) string {
	var sb strings.Builder
	writeNode(&sb, n)
	return sb.String()
}

// DebugArgs formats an argument list the way DebugString prints call
// arguments, without the surrounding parentheses.
func DebugArgs(args []CallArg) string {
	var sb strings.Builder
	writeArgs(&sb, args, false)
	return sb.String()
}

func writeNode(sb *strings.Builder, n Node) {
	switch v := n.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *Var:
		fmt.Fprintf(sb, "Var(%s)", v.Name)
	case *Path:
		fmt.Fprintf(sb, "Path(%s)", strings.Join(v.Segments, "::"))
	case *Const:
		sb.WriteString("Const(")
		writeValue(sb, v.Value)
		sb.WriteString(")")
	case *UnaryOp:
		fmt.Fprintf(sb, "%s(", v.Op)
		writeNode(sb, v.Expr)
		sb.WriteString(")")
	case *BinOp:
		fmt.Fprintf(sb, "%s(", v.Op)
		writeNode(sb, v.Left)
		sb.WriteString(", ")
		writeNode(sb, v.Right)
		sb.WriteString(")")
	case *Range:
		sb.WriteString("Range(")
		if v.Start != nil {
			writeNode(sb, v.Start)
		}
		if v.Inclusive {
			sb.WriteString("..=")
		} else {
			sb.WriteString("..")
		}
		if v.End != nil {
			writeNode(sb, v.End)
		}
		sb.WriteString(")")
	case *Filter:
		fmt.Fprintf(sb, "Filter(%s", v.Name)
		writeArgs(sb, v.Args, true)
		sb.WriteString(")")
	case *FilterSource:
		sb.WriteString("FilterSource")
	case *Test:
		fmt.Fprintf(sb, "Test(%s, ", v.Name)
		writeNode(sb, v.Expr)
		writeArgs(sb, v.Args, true)
		sb.WriteString(")")
	case *GetAttr:
		sb.WriteString("GetAttr(")
		writeNode(sb, v.Expr)
		fmt.Fprintf(sb, ", %s)", v.Name)
	case *GetItem:
		sb.WriteString("GetItem(")
		writeNode(sb, v.Expr)
		sb.WriteString(", ")
		writeNode(sb, v.SubscriptExpr)
		sb.WriteString(")")
	case *Slice:
		sb.WriteString("Slice(")
		writeNode(sb, v.Expr)
		sb.WriteString(", ")
		for i, part := range []Expr{v.Start, v.Stop, v.Step} {
			if i > 0 {
				sb.WriteString(":")
			}
			if part != nil {
				writeNode(sb, part)
			}
		}
		sb.WriteString(")")
	case *Call:
		sb.WriteString("Call(")
		writeNode(sb, v.Expr)
		writeArgs(sb, v.Args, true)
		sb.WriteString(")")
	case *List:
		sb.WriteString("List[")
		writeList(sb, v.Items)
		sb.WriteString("]")
	case *Tuple:
		sb.WriteString("Tuple(")
		writeList(sb, v.Items)
		sb.WriteString(")")
	case *Map:
		sb.WriteString("Map{")
		for i := range v.Keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeNode(sb, v.Keys[i])
			sb.WriteString(": ")
			writeNode(sb, v.Values[i])
		}
		sb.WriteString("}")

	case *Name:
		fmt.Fprintf(sb, "Name(%s)", v.Name)
	case *Placeholder:
		sb.WriteString("_")
	case *Rest:
		sb.WriteString("..")
	case *LitTarget:
		sb.WriteString("Lit(")
		writeValue(sb, v.Value)
		sb.WriteString(")")
	case *PathTarget:
		fmt.Fprintf(sb, "Path(%s)", strings.Join(v.Segments, "::"))
	case *TupleTarget:
		sb.WriteString("Tuple")
		if v.Path != nil {
			fmt.Fprintf(sb, "[%s]", strings.Join(v.Path, "::"))
		}
		sb.WriteString("(")
		writeTargets(sb, v.Elems, ", ")
		sb.WriteString(")")
	case *StructTarget:
		fmt.Fprintf(sb, "Struct[%s]{", strings.Join(v.Path, "::"))
		for i, f := range v.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			if f.Name != "" {
				sb.WriteString(f.Name)
				sb.WriteString(": ")
			}
			writeNode(sb, f.Target)
		}
		sb.WriteString("}")
	case *ArrayTarget:
		sb.WriteString("Array[")
		writeTargets(sb, v.Elems, ", ")
		sb.WriteString("]")
	case *OrTarget:
		sb.WriteString("Or(")
		writeTargets(sb, v.Alts, " | ")
		sb.WriteString(")")
	default:
		fmt.Fprintf(sb, "%T", n)
	}
}

func writeValue(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		sb.WriteString("none")
	case string:
		sb.WriteString(strconv.Quote(val))
	case *BigInt:
		sb.WriteString(val.String())
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		sb.WriteString(s)
	default:
		fmt.Fprint(sb, val)
	}
}

func writeList(sb *strings.Builder, items []Expr) {
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeNode(sb, item)
	}
}

func writeTargets(sb *strings.Builder, items []Target, sep string) {
	for i, item := range items {
		if i > 0 {
			sb.WriteString(sep)
		}
		writeNode(sb, item)
	}
}

func writeArgs(sb *strings.Builder, args []CallArg, leadingSep bool) {
	for i, arg := range args {
		if i > 0 || leadingSep {
			sb.WriteString(", ")
		}
		switch arg.Kind {
		case CallArgKwarg:
			sb.WriteString(arg.Name)
			sb.WriteString("=")
		case CallArgPosSplat:
			sb.WriteString("*")
		case CallArgKwargSplat:
			sb.WriteString("**")
		}
		writeNode(sb, arg.Value)
	}
}
